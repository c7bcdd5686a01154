// Package scheduler triggers sign-in runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unclebandit/drive-signin/internal/service"
)

// Scheduler manages the cron job.
type Scheduler struct {
	cron     *cron.Cron
	job      service.Runner
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a scheduler. A run that is still going when the next tick
// fires makes the tick a no-op.
func New(job service.Runner, schedule string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	return &Scheduler{
		cron:     c,
		job:      job,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the sign-in job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid sign-in schedule %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled sign-in job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs one run and logs its result.
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.job.Run(ctx)
	switch {
	case errors.Is(err, service.ErrNoAccounts):
		s.logger.Warn("no accounts to sign in")
	case err != nil:
		s.logger.Error("scheduled sign-in run failed", "error", err)
	default:
		s.logger.Info("scheduled sign-in run finished",
			"run_id", report.RunID.String(),
			"succeeded", report.Succeeded(),
			"accounts", len(report.Outcomes))
	}
}
