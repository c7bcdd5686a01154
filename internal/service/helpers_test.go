package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
	"github.com/unclebandit/drive-signin/internal/service"
)

var noBackoff = service.RetryPolicy{MaxAttempts: 2}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func transportErr(op string) error {
	return appErrors.NewTransport(op, errors.New("connection reset"))
}

// MockDrive answers the three provider calls from per-test functions and
// counts the calls.
type MockDrive struct {
	mu sync.Mutex

	TokenFunc  func(refreshToken string, call int) (*drive.TokenResponse, error)
	SignInFunc func(accessToken string, call int) (*drive.SignInResponse, error)
	RedeemFunc func(accessToken, code string) (*drive.RewardResponse, error)

	TokenCalls  map[string]int
	SignInCalls int
	RedeemCalls int
}

func (m *MockDrive) RequestToken(ctx context.Context, refreshToken string) (*drive.TokenResponse, error) {
	m.mu.Lock()
	if m.TokenCalls == nil {
		m.TokenCalls = map[string]int{}
	}
	m.TokenCalls[refreshToken]++
	call := m.TokenCalls[refreshToken]
	m.mu.Unlock()
	return m.TokenFunc(refreshToken, call)
}

func (m *MockDrive) SignInList(ctx context.Context, accessToken string) (*drive.SignInResponse, error) {
	m.mu.Lock()
	m.SignInCalls++
	call := m.SignInCalls
	m.mu.Unlock()
	return m.SignInFunc(accessToken, call)
}

func (m *MockDrive) RedeemCode(ctx context.Context, accessToken, code string) (*drive.RewardResponse, error) {
	m.mu.Lock()
	m.RedeemCalls++
	m.mu.Unlock()
	return m.RedeemFunc(accessToken, code)
}

func grantResponse(access, refresh, user string) *drive.TokenResponse {
	return &drive.TokenResponse{
		AccessToken:  strPtr(access),
		RefreshToken: strPtr(refresh),
		UserName:     strPtr(user),
		ExpiresIn:    7200,
		Raw:          map[string]any{"user_name": user},
	}
}

func signedInResponse(streak int, logs ...model.SignInLogEntry) *drive.SignInResponse {
	return &drive.SignInResponse{
		Success: boolPtr(true),
		Result:  &drive.SignInPayload{SignInCount: streak, SignInLogs: logs},
		Raw:     map[string]any{"success": true},
	}
}

func newSession(d *MockDrive, withReward bool) *service.Session {
	logger := quietLogger()
	var redeemer *service.RewardRedeemer
	if withReward {
		redeemer = service.NewRewardRedeemer(d, "PROMO", logger)
	}
	return service.NewSession(
		service.NewExchanger(d, noBackoff, logger),
		service.NewSignInExecutor(d, noBackoff, logger),
		redeemer,
		logger,
	)
}

// MockRunner signs every account in successfully without touching the
// network.
type MockRunner struct {
	Seen []string
}

func (m *MockRunner) Run(ctx context.Context, refreshToken string) model.AccountOutcome {
	m.Seen = append(m.Seen, refreshToken)
	return model.AccountOutcome{
		AccountID:           refreshToken,
		Success:             true,
		StreakCount:         1,
		RewardText:          service.NoRewardText,
		UpdatedRefreshToken: refreshToken,
		State:               model.StateDone,
		TokenAcquired:       true,
	}
}
