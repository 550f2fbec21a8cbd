package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cbrrates/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct{ mock.Mock }

func (m *MockRunner) RunDate(ctx context.Context, date string) (RunReport, error) {
	args := m.Called(ctx, date)
	report, _ := args.Get(0).(RunReport)
	return report, args.Error(1)
}

func (m *MockRunner) RunRange(ctx context.Context, start, end string) (RunReport, error) {
	args := m.Called(ctx, start, end)
	report, _ := args.Get(0).(RunReport)
	return report, args.Error(1)
}

func newTestRuns(runner *MockRunner) *Runs {
	p := newTestParser(new(MockPageFetcher), nil, fixedNow)
	runs := NewRuns(context.Background(), runner, p.Parser, 0)
	runs.now = fixedClock
	return runs
}

func TestRuns_SubmitDate_Done(t *testing.T) {
	runner := new(MockRunner)
	runs := newTestRuns(runner)

	runner.On("RunDate", mock.Anything, "14.10.2025").Return(RunReport{Records: 43, Uploaded: true}, nil).Once()

	id, err := runs.Submit(RunRequest{Date: "14.10.2025"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	runs.Wait()

	view, ok := runs.Get(id)
	require.True(t, ok)
	require.Equal(t, RunStatusDone, view.Status)
	require.Equal(t, 43, view.Report.Records)
	require.Empty(t, view.Error)
	require.NotNil(t, view.FinishedAt)
	runner.AssertExpectations(t)
}

func TestRuns_SubmitRange_Failed(t *testing.T) {
	runner := new(MockRunner)
	runs := newTestRuns(runner)

	runner.On("RunRange", mock.Anything, "01.10.2025", "03.10.2025").
		Return(RunReport{Records: 10}, errors.New("sink failure: database_api: boom")).Once()

	id, err := runs.Submit(RunRequest{From: "01.10.2025", To: "03.10.2025"})
	require.NoError(t, err)
	runs.Wait()

	view, ok := runs.Get(id)
	require.True(t, ok)
	require.Equal(t, RunStatusFailed, view.Status)
	require.Equal(t, "sink failure: database_api: boom", view.Error)
	require.Equal(t, 10, view.Report.Records)
	runner.AssertExpectations(t)
}

func TestRuns_Submit_RejectsBadRequests(t *testing.T) {
	cases := []struct {
		name    string
		req     RunRequest
		wantErr error
	}{
		{name: "empty", req: RunRequest{}, wantErr: ErrInvalidRunRequest},
		{name: "date and range", req: RunRequest{Date: "14.10.2025", From: "01.10.2025", To: "02.10.2025"}, wantErr: ErrInvalidRunRequest},
		{name: "open range", req: RunRequest{From: "01.10.2025"}, wantErr: ErrInvalidRunRequest},
		{name: "bad date", req: RunRequest{Date: "2025-10-14"}, wantErr: domain.ErrInvalidDate},
		{name: "bad range end", req: RunRequest{From: "01.10.2025", To: "31.02.2025"}, wantErr: domain.ErrInvalidDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := new(MockRunner)
			runs := newTestRuns(runner)

			_, err := runs.Submit(tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			require.True(t, IsClientError(err))
			runner.AssertNotCalled(t, "RunDate", mock.Anything, mock.Anything)
			runner.AssertNotCalled(t, "RunRange", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRuns_Get_Unknown(t *testing.T) {
	runs := newTestRuns(new(MockRunner))
	_, ok := runs.Get(uuid.New())
	require.False(t, ok)
}

func TestRuns_Get_PendingWhileRunning(t *testing.T) {
	runner := new(MockRunner)
	runs := newTestRuns(runner)
	release := make(chan time.Time)

	runner.On("RunDate", mock.Anything, "14.10.2025").
		WaitUntil(release).
		Return(RunReport{}, nil).Once()

	id, err := runs.Submit(RunRequest{Date: "14.10.2025"})
	require.NoError(t, err)

	view, ok := runs.Get(id)
	require.True(t, ok)
	require.Equal(t, RunStatusPending, view.Status)
	require.Nil(t, view.Report)

	close(release)
	runs.Wait()

	view, _ = runs.Get(id)
	require.Equal(t, RunStatusDone, view.Status)
}

func TestRuns_FinishedRunsExpire(t *testing.T) {
	runner := new(MockRunner)
	runs := newTestRuns(runner)

	now := fixedNow
	var mu sync.Mutex
	runs.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	runner.On("RunDate", mock.Anything, "13.10.2025").Return(RunReport{Records: 43}, nil).Once()
	runner.On("RunDate", mock.Anything, "14.10.2025").Return(RunReport{Records: 43}, nil).Once()

	oldID, err := runs.Submit(RunRequest{Date: "13.10.2025"})
	require.NoError(t, err)
	runs.Wait()

	advance(DefaultRunRetention - time.Minute)
	_, ok := runs.Get(oldID)
	require.True(t, ok)

	advance(2 * time.Minute)
	_, ok = runs.Get(oldID)
	require.False(t, ok)

	newID, err := runs.Submit(RunRequest{Date: "14.10.2025"})
	require.NoError(t, err)
	runs.Wait()

	require.Equal(t, 1, runs.size())
	_, ok = runs.Get(newID)
	require.True(t, ok)
	runner.AssertExpectations(t)
}

func TestRuns_PendingRunsAreNotEvicted(t *testing.T) {
	runner := new(MockRunner)
	runs := newTestRuns(runner)
	release := make(chan time.Time)

	runner.On("RunDate", mock.Anything, "13.10.2025").WaitUntil(release).Return(RunReport{}, nil).Once()
	runner.On("RunDate", mock.Anything, "14.10.2025").Return(RunReport{}, nil).Once()

	pendingID, err := runs.Submit(RunRequest{Date: "13.10.2025"})
	require.NoError(t, err)

	runs.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	_, err = runs.Submit(RunRequest{Date: "14.10.2025"})
	require.NoError(t, err)

	view, ok := runs.Get(pendingID)
	require.True(t, ok)
	require.Equal(t, RunStatusPending, view.Status)

	close(release)
	runs.Wait()
	runner.AssertExpectations(t)
}
