package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
)

const opTokenExchange = "token exchange"

// Provider codes meaning the refresh token can never succeed.
var invalidCredentialCodes = map[drive.Code]bool{
	"RefreshTokenExpired":           true,
	"InvalidParameter.RefreshToken": true,
}

type TokenClient interface {
	RequestToken(ctx context.Context, refreshToken string) (*drive.TokenResponse, error)
}

// Exchanger turns a refresh token into an access grant.
type Exchanger struct {
	client TokenClient
	retry  RetryPolicy
	logger *slog.Logger
	now    func() time.Time
}

func NewExchanger(client TokenClient, retry RetryPolicy, logger *slog.Logger) *Exchanger {
	return &Exchanger{
		client: client,
		retry:  retry,
		logger: logger,
		now:    time.Now,
	}
}

func (e *Exchanger) Exchange(ctx context.Context, refreshToken string) (*model.AccessGrant, error) {
	logger := e.logger.With("account", MaskToken(refreshToken))

	resp, err := withRetry(ctx, e.retry, logger, opTokenExchange, func() (*drive.TokenResponse, error) {
		return e.client.RequestToken(ctx, refreshToken)
	})
	if err != nil {
		logger.Error("failed to get access token", "error", err)
		return nil, err
	}

	if invalidCredentialCodes[resp.Code] {
		logger.Error("failed to get access token, refresh token may be invalid", "code", resp.Code)
		return nil, &appErrors.InvalidCredential{Code: string(resp.Code), Payload: resp.Raw}
	}

	if resp.AccessToken == nil || *resp.AccessToken == "" || resp.RefreshToken == nil || resp.UserName == nil {
		logger.Error("failed to get access token, fields missing", "payload", resp.Raw)
		return nil, appErrors.NewMalformed(opTokenExchange, resp.Raw)
	}

	grant := &model.AccessGrant{
		AccessToken:  *resp.AccessToken,
		RefreshToken: *resp.RefreshToken,
		UserName:     *resp.UserName,
		ExpiresAt:    accessTokenExpiry(*resp.AccessToken, resp.ExpiresIn, e.now()),
	}
	logger.Debug("access token acquired", "user", grant.UserName, "expires_at", grant.ExpiresAt)
	return grant, nil
}

// accessTokenExpiry reads the exp claim of the access token without verifying
// it and falls back to expires_in.
func accessTokenExpiry(accessToken string, expiresIn int, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}
