package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
)

const (
	opSignIn     = "sign in"
	NoRewardText = "no reward"
)

type SignInClient interface {
	SignInList(ctx context.Context, accessToken string) (*drive.SignInResponse, error)
}

// SignInExecutor performs the daily sign-in and reads today's reward from the
// month's log.
type SignInExecutor struct {
	client SignInClient
	retry  RetryPolicy
	logger *slog.Logger
}

func NewSignInExecutor(client SignInClient, retry RetryPolicy, logger *slog.Logger) *SignInExecutor {
	return &SignInExecutor{client: client, retry: retry, logger: logger}
}

func (s *SignInExecutor) SignIn(ctx context.Context, accessToken, account string) (*model.SignInResult, error) {
	logger := s.logger.With("account", account)

	resp, err := withRetry(ctx, s.retry, logger, opSignIn, func() (*drive.SignInResponse, error) {
		return s.client.SignInList(ctx, accessToken)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("sign in response", "payload", resp.Raw)

	if resp.Success == nil || (*resp.Success && resp.Result == nil) {
		logger.Error("sign in failed", "payload", resp.Raw)
		return nil, appErrors.NewMalformed(opSignIn, resp.Raw)
	}
	if !*resp.Success {
		logger.Error("sign in rejected", "code", resp.Code, "message", resp.Message)
		return nil, &appErrors.ProviderRejected{
			Op:      opSignIn,
			Code:    string(resp.Code),
			Message: resp.Message,
			Payload: resp.Raw,
		}
	}

	today, ok := TodayEntry(resp.Result.SignInLogs)
	result := &model.SignInResult{
		StreakCount: resp.Result.SignInCount,
		RewardText:  RewardText(today, ok),
	}

	logger.Info("sign in succeeded", "streak", result.StreakCount)
	logger.Info("sign in reward", "reward", result.RewardText)
	return result, nil
}

// TodayEntry returns the entry right before the first missed day. When no
// day is missed the last entry is today's; when the very first day is missed
// there is no entry for today.
func TodayEntry(logs []model.SignInLogEntry) (model.SignInLogEntry, bool) {
	for i, entry := range logs {
		if entry.Status != model.StatusMissed {
			continue
		}
		if i == 0 {
			return model.SignInLogEntry{}, false
		}
		return logs[i-1], true
	}
	if len(logs) == 0 {
		return model.SignInLogEntry{}, false
	}
	return logs[len(logs)-1], true
}

func RewardText(entry model.SignInLogEntry, ok bool) string {
	if !ok || !entry.IsRewardClaimed || entry.Reward == nil {
		return NoRewardText
	}
	return fmt.Sprintf("got %s %s", entry.Reward.Name, entry.Reward.Description)
}
