package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/unclebandit/drive-signin/internal/model"
)

var ErrNoAccounts = errors.New("no refresh tokens configured")

// FinishTimeout bounds report delivery and token persistence once the
// accounts have been processed.
const FinishTimeout = 2 * time.Minute

type Dispatcher interface {
	Dispatch(ctx context.Context, enabled []string, env model.Envelope) []model.Delivery
}

type CredentialSource interface {
	LoadRefreshTokens(ctx context.Context) ([]string, error)
}

// CredentialSink stores the rotated refresh tokens after a run.
type CredentialSink interface {
	SaveRefreshTokens(ctx context.Context, tokens []string) error
}

// Job is one complete sign-in run: accounts, notifications and token
// persistence. Runs never overlap.
type Job struct {
	runMu sync.Mutex

	source     CredentialSource
	aggregator *Aggregator
	dispatcher Dispatcher
	sink       CredentialSink
	channels   []string
	logger     *slog.Logger

	finishTimeout time.Duration

	latestMu sync.RWMutex
	latest   *Report
}

func NewJob(source CredentialSource, aggregator *Aggregator, dispatcher Dispatcher, sink CredentialSink, channels []string, logger *slog.Logger) *Job {
	return &Job{
		source:     source,
		aggregator: aggregator,
		dispatcher: dispatcher,
		sink:       sink,
		channels:   channels,
		logger:     logger,

		finishTimeout: FinishTimeout,
	}
}

// Run returns an error only when the tokens cannot be loaded or the rotated
// tokens cannot be saved. Account failures are part of the report.
//
// The provider has rotated every processed token by the time the accounts are
// done, so delivery and persistence run on a context detached from ctx's
// cancellation and bounded by FinishTimeout.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	tokens, err := j.source.LoadRefreshTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil, ErrNoAccounts
	}

	report := j.aggregator.Run(ctx, tokens)
	j.setLatest(report)

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.finishTimeout)
	defer cancel()

	j.dispatcher.Dispatch(finishCtx, j.channels, report.Envelope())
	if env, ok := report.RewardEnvelope(); ok {
		j.dispatcher.Dispatch(finishCtx, j.channels, env)
	}

	if err := j.sink.SaveRefreshTokens(finishCtx, report.RefreshTokens); err != nil {
		msg := fmt.Sprintf("failed to persist refresh tokens: %v", err)
		j.logger.Error(msg, "run_id", report.RunID.String())
		j.dispatcher.Dispatch(finishCtx, j.channels, model.Envelope{
			PlainText:  msg,
			MarkupText: html.EscapeString(msg),
			Title:      SignInTitle,
		})
		return report, fmt.Errorf("failed to persist refresh tokens: %w", err)
	}

	j.logger.Info("refresh tokens saved", "run_id", report.RunID.String(), "count", len(report.RefreshTokens))
	return report, nil
}

// Latest is the last report produced by this process, or nil.
func (j *Job) Latest() *Report {
	j.latestMu.RLock()
	defer j.latestMu.RUnlock()
	return j.latest
}

func (j *Job) setLatest(r *Report) {
	j.latestMu.Lock()
	defer j.latestMu.Unlock()
	j.latest = r
}
