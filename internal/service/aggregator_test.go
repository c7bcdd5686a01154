package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/service"
)

func twoAccountDrive() *MockDrive {
	return &MockDrive{
		TokenFunc: func(refresh string, call int) (*drive.TokenResponse, error) {
			if refresh == "refresh-token-aaaa" {
				return grantResponse("access-a", "rotated-token-aaaa", "13800000001"), nil
			}
			return &drive.TokenResponse{Message: "unexpected", Raw: map[string]any{"message": "unexpected"}}, nil
		},
		SignInFunc: func(string, int) (*drive.SignInResponse, error) {
			return signedInResponse(5, signed(1, nil), signed(2, nil), missed(3)), nil
		},
		RedeemFunc: redeemed,
	}
}

func TestAggregator_TwoAccounts(t *testing.T) {
	agg := service.NewAggregator(newSession(twoAccountDrive(), false), quietLogger())

	report := agg.Run(context.Background(), []string{"refresh-token-aaaa", "refresh-token-bbbb"})

	require.Len(t, report.Outcomes, 2)
	first, second := report.Outcomes[0], report.Outcomes[1]

	assert.True(t, first.Success)
	assert.Equal(t, 5, first.StreakCount)
	assert.Equal(t, "no reward", first.RewardText)

	assert.False(t, second.Success)
	assert.Equal(t, "MalformedResponse", appErrors.Kind(second.Err))

	assert.Equal(t, []string{"rotated-token-aaaa", "refresh-token-bbbb"}, report.RefreshTokens)
	assert.Equal(t, service.PlainText(first)+"\n\n"+service.PlainText(second), report.Text)
	assert.Equal(t, service.MarkupText(first)+"\n\n"+service.MarkupText(second), report.Markup)
	assert.Contains(t, report.Text, "[13800000001] sign-in succeeded, signed in 5 days this month.\nThis sign-in: no reward")
	assert.Contains(t, report.Text, "[refr**********bbbb] sign-in failed")
	assert.Equal(t, 1, report.Succeeded())

	_, ok := report.RewardEnvelope()
	assert.False(t, ok)

	env := report.Envelope()
	assert.Equal(t, service.SignInTitle, env.Title)
	assert.Equal(t, report.Text, env.PlainText)
}

func TestAggregator_RewardReportOnlyForAcquiredTokens(t *testing.T) {
	agg := service.NewAggregator(newSession(twoAccountDrive(), true), quietLogger())

	report := agg.Run(context.Background(), []string{"refresh-token-aaaa", "refresh-token-bbbb"})

	env, ok := report.RewardEnvelope()
	require.True(t, ok)
	assert.Equal(t, service.RewardTitle, env.Title)
	assert.Equal(t, env.PlainText, env.MarkupText)
	assert.True(t, strings.HasPrefix(env.PlainText, "[13800000001] reward code redeemed: ok\n\n"))
	assert.True(t, strings.HasSuffix(env.PlainText, service.RewardFooter))
	assert.NotContains(t, env.PlainText, "bbbb")
}

func TestAggregator_KeepsInputOrder(t *testing.T) {
	runner := &MockRunner{}
	agg := service.NewAggregator(runner, quietLogger())

	tokens := []string{"token-3", "token-1", "token-2"}
	report := agg.Run(context.Background(), tokens)

	assert.Equal(t, tokens, runner.Seen)
	assert.Equal(t, tokens, report.RefreshTokens)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.WithinDuration(t, time.Now(), report.FinishedAt, time.Minute)
}

func TestReport_RewardEnvelopeEscapesMarkup(t *testing.T) {
	report := &service.Report{RewardText: "account a: <b>5GB</b> & more"}

	env, ok := report.RewardEnvelope()
	require.True(t, ok)
	assert.Equal(t, "account a: <b>5GB</b> & more", env.PlainText)
	assert.Equal(t, "account a: &lt;b&gt;5GB&lt;/b&gt; &amp; more", env.MarkupText)
	assert.Equal(t, service.RewardTitle, env.Title)
}
