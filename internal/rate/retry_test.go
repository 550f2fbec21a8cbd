package rate

import (
	"cbrrates/internal/domain"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestPolicy(maxAttempts int, rec *sleepRecorder) RetryPolicy {
	p := NewRetryPolicy(maxAttempts, 10*time.Second)
	p.sleep = rec.sleep
	return p
}

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	rec := &sleepRecorder{}
	p := newTestPolicy(3, rec)

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, calls)
	require.Empty(t, rec.calls)
}

func TestRetryPolicy_RetriesTransientThenSucceeds(t *testing.T) {
	rec := &sleepRecorder{}
	p := newTestPolicy(3, rec)

	attempts, err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		if attempt < 3 {
			return fmt.Errorf("%w: boom", domain.ErrTransport)
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, rec.calls)
}

func TestRetryPolicy_NeverExceedsMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", maxAttempts), func(t *testing.T) {
			rec := &sleepRecorder{}
			p := newTestPolicy(maxAttempts, rec)

			calls := 0
			attempts, err := p.Do(context.Background(), func(context.Context, int) error {
				calls++
				return fmt.Errorf("%w: status 503", domain.ErrNonSuccessStatus)
			})

			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrNonSuccessStatus)
			require.ErrorContains(t, err, fmt.Sprintf("failed after %d attempts", maxAttempts))
			require.Equal(t, maxAttempts, attempts)
			require.Equal(t, maxAttempts, calls)
			require.Len(t, rec.calls, maxAttempts-1)
		})
	}
}

func TestRetryPolicy_NonRetryableStopsImmediately(t *testing.T) {
	rec := &sleepRecorder{}
	p := newTestPolicy(3, rec)
	wantErr := errors.New("bad request building")

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return wantErr
	})

	require.Equal(t, wantErr, err)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, calls)
	require.Empty(t, rec.calls)
}

func TestRetryPolicy_CustomClassifier(t *testing.T) {
	rec := &sleepRecorder{}
	p := newTestPolicy(2, rec)
	p.Retryable = func(error) bool { return true }

	calls := 0
	_, err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("anything")
	})

	require.Error(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryPolicy_ContextCanceledDuringSleep(t *testing.T) {
	p := NewRetryPolicy(3, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	attempts, err := p.Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return fmt.Errorf("%w: boom", domain.ErrTransport)
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, calls)
}

func TestNewRetryPolicy_Defaults(t *testing.T) {
	p := NewRetryPolicy(0, -1)
	require.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	require.Equal(t, DefaultRetryDelay, p.Delay)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(fmt.Errorf("x: %w", domain.ErrTransport)))
	require.True(t, IsRetryable(fmt.Errorf("x: %w", domain.ErrNonSuccessStatus)))
	require.False(t, IsRetryable(domain.ErrTableNotFound))
	require.False(t, IsRetryable(context.Canceled))
}
