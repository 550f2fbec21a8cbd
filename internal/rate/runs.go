package rate

import (
	"cbrrates/internal/domain"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusDone    RunStatus = "done"
	RunStatusFailed  RunStatus = "failed"
)

// DefaultRunRetention is how long a finished run stays visible to Get.
const DefaultRunRetention = time.Hour

var ErrInvalidRunRequest = errors.New("either date or both from and to are required")

// RunRequest selects a single-date run (Date) or a backfill (From, To).
type RunRequest struct {
	Date string `json:"date,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type RunView struct {
	ID         uuid.UUID  `json:"run_id"`
	Status     RunStatus  `json:"status"`
	Request    RunRequest `json:"request"`
	Report     *RunReport `json:"report,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type Runner interface {
	RunDate(ctx context.Context, date string) (RunReport, error)
	RunRange(ctx context.Context, start, end string) (RunReport, error)
}

// Runs executes on-demand runs in the background and keeps their outcome in memory.
type Runs struct {
	runner   Runner
	validate func(date string) (time.Time, error)
	baseCtx  context.Context
	// -----
	mu        sync.RWMutex
	runs      map[uuid.UUID]*RunView
	wg        sync.WaitGroup
	now       func() time.Time
	retention time.Duration
}

// Submit validates the request and starts the run. The returned id can be polled with Get.
func (r *Runs) Submit(req RunRequest) (uuid.UUID, error) {
	if err := r.check(req); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	now := r.now()
	view := &RunView{ID: id, Status: RunStatusPending, Request: req, StartedAt: now}
	r.mu.Lock()
	r.evictLocked(now)
	r.runs[id] = view
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		log := logrus.WithField("exec_id", id.String())
		log.Info("On-demand rates run started")

		var (
			report RunReport
			err    error
		)
		if req.Date != "" {
			report, err = r.runner.RunDate(r.baseCtx, req.Date)
		} else {
			report, err = r.runner.RunRange(r.baseCtx, req.From, req.To)
		}

		finished := r.now()
		r.mu.Lock()
		defer r.mu.Unlock()
		view.Report = &report
		view.FinishedAt = &finished
		view.Status = RunStatusDone
		if err != nil {
			log.WithError(err).Error("On-demand rates run failed")
			view.Status = RunStatusFailed
			view.Error = err.Error()
			return
		}
		log.WithField("records", report.Records).Info("On-demand rates run finished")
	}()
	return id, nil
}

// Get returns a snapshot of the run.
func (r *Runs) Get(id uuid.UUID) (RunView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	view, ok := r.runs[id]
	if !ok || r.expired(view, r.now()) {
		return RunView{}, false
	}
	return *view, true
}

// evictLocked drops finished runs older than the retention. Pending runs are kept.
func (r *Runs) evictLocked(now time.Time) {
	for id, view := range r.runs {
		if r.expired(view, now) {
			delete(r.runs, id)
		}
	}
}

func (r *Runs) expired(view *RunView, now time.Time) bool {
	return view.FinishedAt != nil && now.Sub(*view.FinishedAt) > r.retention
}

// size returns the number of runs currently kept.
func (r *Runs) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Wait blocks until every submitted run has finished.
func (r *Runs) Wait() { r.wg.Wait() }

func (r *Runs) check(req RunRequest) error {
	switch {
	case req.Date != "" && req.From == "" && req.To == "":
		_, err := r.validate(req.Date)
		return err
	case req.Date == "" && req.From != "" && req.To != "":
		if _, err := r.validate(req.From); err != nil {
			return err
		}
		_, err := r.validate(req.To)
		return err
	}
	return ErrInvalidRunRequest
}

// NewRuns keeps finished runs for retention; zero or negative means DefaultRunRetention.
func NewRuns(ctx context.Context, runner Runner, parser *Parser, retention time.Duration) *Runs {
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	return &Runs{
		runner:    runner,
		validate:  parser.ParseDay,
		baseCtx:   ctx,
		runs:      make(map[uuid.UUID]*RunView),
		now:       time.Now,
		retention: retention,
	}
}

// IsClientError reports whether err was caused by the request rather than the pipeline.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRunRequest) || errors.Is(err, domain.ErrInvalidDate)
}
