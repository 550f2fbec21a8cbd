package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRunAt    = "09:00"
	DefaultTimezone = "Europe/Moscow"
)

type DailyRunner interface {
	RunDaily(ctx context.Context) (RunReport, error)
}

type ScheduleConfig struct {
	At         string
	Location   *time.Location
	RunOnStart bool
}

type Scheduler struct {
	runner DailyRunner
	cfg    ScheduleConfig
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func (s *Scheduler) Start(ctx context.Context) error {
	hour, minute, err := ParseRunAt(s.cfg.At)
	if err != nil {
		return err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(s.cfg.Location))
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		log := logrus.WithField("exec_id", execID)
		log.Info("Daily rates run started")

		report, runErr := s.runner.RunDaily(jobCtx)
		if runErr != nil {
			log.WithError(runErr).Error("Daily rates run failed")
			return
		}
		log.WithFields(logrus.Fields{
			"records":  report.Records,
			"uploaded": report.Uploaded,
			"archived": report.Archived,
		}).Info("Daily rates run finished")
	}

	opts := []gocron.JobOption{
		gocron.WithName("daily-rates"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if s.cfg.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(job),
		opts...,
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// Shutdown stops the scheduler and waits for a running job. Concurrent and repeated calls are safe.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

// ParseRunAt parses an HH:MM wall-clock time.
func ParseRunAt(at string) (uint, uint, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid run time %q: expected HH:MM", at)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

func NewScheduler(runner DailyRunner, cfg ScheduleConfig) *Scheduler {
	if cfg.At == "" {
		cfg.At = DefaultRunAt
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{runner: runner, cfg: cfg}
}
