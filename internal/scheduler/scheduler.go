package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/pass-weather-report/internal/store"
)

// Runner is the report run the scheduler triggers.
type Runner interface {
	RunTarget(ctx context.Context) (store.RunResult, error)
}

// Scheduler triggers one report run per day at a fixed UTC time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	at        string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. at is "HH:MM" in UTC; timeout bounds each run.
func New(runner Runner, at string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		at:        at,
		timeout:   timeout,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	job, err := s.scheduler.Every(1).Day().At(s.at).Do(s.runOnce)
	if err != nil {
		return fmt.Errorf("schedule daily run at %s: %w", s.at, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "at", s.at, "next_run", job.NextRun())
	return nil
}

// NextRun is when the daily job fires next; zero before Start.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("scheduled report run starting")
	result, err := s.runner.RunTarget(ctx)
	if err != nil {
		s.logger.Error("scheduled report run failed", "run_id", result.ID, "error", err)
		return
	}
	s.logger.Info("scheduled report run finished", "run_id", result.ID, "rows", result.Rows)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
