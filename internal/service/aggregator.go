package service

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/drive-signin/internal/model"
)

const (
	SignInTitle = "Aliyun Drive Sign-in"
	RewardTitle = "Aliyun Drive Reward Code"

	reportSeparator = "\n\n"

	RewardFooter = "This feature is provided by aliyun-auto-signin https://github.com/ImYrS/aliyun-auto-signin.\n" +
		"It tries to redeem the anniversary reward code automatically and will be removed when the campaign ends.\n" +
		"If this project helps you, a Star is a welcome way to support its maintenance."
)

type AccountRunner interface {
	Run(ctx context.Context, refreshToken string) model.AccountOutcome
}

// Report is the merged result of one run over every account.
type Report struct {
	RunID      uuid.UUID              `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Outcomes   []model.AccountOutcome `json:"outcomes"`
	Text       string                 `json:"text"`
	Markup     string                 `json:"-"`
	RewardText string                 `json:"reward_text,omitempty"`

	// RefreshTokens has one entry per input account, in input order.
	RefreshTokens []string `json:"-"`
}

func (r *Report) Envelope() model.Envelope {
	return model.Envelope{PlainText: r.Text, MarkupText: r.Markup, Title: SignInTitle}
}

// RewardEnvelope reports false when no account attempted a redemption.
func (r *Report) RewardEnvelope() (model.Envelope, bool) {
	if r.RewardText == "" {
		return model.Envelope{}, false
	}
	return model.Envelope{PlainText: r.RewardText, MarkupText: html.EscapeString(r.RewardText), Title: RewardTitle}, true
}

// Aggregator runs every account one after another.
type Aggregator struct {
	session AccountRunner
	logger  *slog.Logger
	now     func() time.Time
}

func NewAggregator(session AccountRunner, logger *slog.Logger) *Aggregator {
	return &Aggregator{session: session, logger: logger, now: time.Now}
}

func (a *Aggregator) Run(ctx context.Context, refreshTokens []string) *Report {
	report := &Report{
		RunID:         uuid.New(),
		StartedAt:     a.now(),
		Outcomes:      make([]model.AccountOutcome, 0, len(refreshTokens)),
		RefreshTokens: make([]string, 0, len(refreshTokens)),
	}
	logger := a.logger.With("run_id", report.RunID.String())
	logger.Info("starting sign-in run", "accounts", len(refreshTokens))

	var texts, markups, rewards []string
	for _, token := range refreshTokens {
		outcome := a.session.Run(ctx, token)

		report.Outcomes = append(report.Outcomes, outcome)
		report.RefreshTokens = append(report.RefreshTokens, outcome.UpdatedRefreshToken)
		texts = append(texts, PlainText(outcome))
		markups = append(markups, MarkupText(outcome))

		if outcome.TokenAcquired && outcome.Redemption != nil {
			rewards = append(rewards, RedemptionText(outcome.AccountID, *outcome.Redemption))
		}
	}

	report.Text = strings.Join(texts, reportSeparator)
	report.Markup = strings.Join(markups, reportSeparator)
	if len(rewards) > 0 {
		report.RewardText = strings.Join(rewards, reportSeparator) + reportSeparator + RewardFooter
	}
	report.FinishedAt = a.now()

	logger.Info("sign-in run finished", "accounts", len(report.Outcomes), "succeeded", report.Succeeded())
	return report
}

func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}
