package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/unclebandit/drive-signin/internal/queue"
)

// Runner is what the worker drives for every run request.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Worker turns queued run requests into sign-in runs.
type Worker struct {
	Job     Runner
	Timeout time.Duration
	Logger  *slog.Logger
}

// Constructor
func NewWorker(job Runner, timeout time.Duration, logger *slog.Logger) *Worker {
	return &Worker{Job: job, Timeout: timeout, Logger: logger}
}

// Handle is a queue.Handler. It returns an error only for failures a retry
// can fix: a run that produced a report already rotated the tokens and is not
// repeated.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	req, err := queue.DecodeRunRequest(payload)
	if err != nil {
		w.Logger.Error("dropping invalid run request", "error", err)
		return nil
	}
	logger := w.Logger.With("request_id", req.RequestID, "source", req.Source)

	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	logger.Info("run request received", "requested_at", req.RequestedAt)
	report, err := w.Job.Run(ctx)
	switch {
	case errors.Is(err, ErrNoAccounts):
		logger.Warn("no accounts to sign in")
		return nil
	case err != nil && report == nil:
		return err
	case err != nil:
		logger.Error("run finished with errors", "run_id", report.RunID.String(), "error", err)
		return nil
	}

	logger.Info("run finished", "run_id", report.RunID.String(), "succeeded", report.Succeeded(), "accounts", len(report.Outcomes))
	return nil
}
