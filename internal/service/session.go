package service

import (
	"context"
	"log/slog"

	"github.com/unclebandit/drive-signin/internal/model"
)

// Session runs one account from token exchange to the optional reward code.
type Session struct {
	exchanger *Exchanger
	signer    *SignInExecutor
	redeemer  *RewardRedeemer
	logger    *slog.Logger
}

// NewSession builds a session. A nil redeemer disables reward redemption.
func NewSession(exchanger *Exchanger, signer *SignInExecutor, redeemer *RewardRedeemer, logger *slog.Logger) *Session {
	return &Session{
		exchanger: exchanger,
		signer:    signer,
		redeemer:  redeemer,
		logger:    logger,
	}
}

// Run never fails: every error ends up in the returned outcome.
func (s *Session) Run(ctx context.Context, refreshToken string) model.AccountOutcome {
	out := model.AccountOutcome{
		AccountID:           MaskToken(refreshToken),
		UpdatedRefreshToken: refreshToken,
		State:               model.StateStart,
	}

	grant, err := s.exchanger.Exchange(ctx, refreshToken)
	if err != nil {
		out.Err = err
		out.State = model.StateFailed
		return out
	}

	out.AccountID = accountID(grant.UserName, refreshToken)
	if grant.RefreshToken != "" {
		out.UpdatedRefreshToken = grant.RefreshToken
	}
	out.TokenAcquired = true
	out.State = model.StateTokenAcquired

	result, err := s.signer.SignIn(ctx, grant.AccessToken, out.AccountID)
	if err != nil {
		out.Err = err
		out.State = model.StateFailed
	} else {
		out.Success = true
		out.StreakCount = result.StreakCount
		out.RewardText = result.RewardText
		out.State = model.StateSignedIn
	}

	// Redemption only needs the access token, so it runs after a failed
	// sign-in as well.
	if s.redeemer != nil {
		redemption := s.redeemer.Redeem(ctx, grant.AccessToken)
		out.Redemption = &redemption
		if out.State != model.StateFailed {
			out.State = model.StateRewardAttempted
		}
	}

	if out.State != model.StateFailed {
		out.State = model.StateDone
	}
	s.logger.Debug("account finished", "account", out.AccountID, "state", out.State.String())
	return out
}
