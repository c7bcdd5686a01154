package service

import (
	"context"
	"log/slog"
	"time"

	appErrors "github.com/unclebandit/drive-signin/internal/errors"
)

// RetryPolicy repeats a call only while it fails at the transport level.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy allows one automatic retry.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 2, Backoff: time.Second}

// withRetry runs fn up to MaxAttempts times. The error of the last attempt is
// the one returned.
func withRetry[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, op string, fn func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn()
		if err == nil || !appErrors.IsTransport(err) {
			return result, err
		}
		logger.Error("request failed", "op", op, "attempt", attempt, "max_attempts", attempts, "error", err)
		if attempt == attempts {
			break
		}

		logger.Info("retrying", "op", op)
		if p.Backoff > 0 {
			select {
			case <-ctx.Done():
				return result, err
			case <-time.After(time.Duration(attempt) * p.Backoff):
			}
		}
	}
	return result, err
}
