package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
	"github.com/unclebandit/drive-signin/internal/service"
)

func signed(day int, reward *model.Reward) model.SignInLogEntry {
	return model.SignInLogEntry{Day: day, Status: model.StatusSigned, Reward: reward, IsRewardClaimed: reward != nil}
}

func missed(day int) model.SignInLogEntry {
	return model.SignInLogEntry{Day: day, Status: model.StatusMissed}
}

func TestTodayEntry_BeforeFirstMiss(t *testing.T) {
	logs := []model.SignInLogEntry{
		signed(1, nil),
		signed(2, &model.Reward{Name: "50GB", Description: "storage for 7 days"}),
		missed(3),
		missed(4),
	}

	entry, ok := service.TodayEntry(logs)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Day)
	assert.Equal(t, "got 50GB storage for 7 days", service.RewardText(entry, ok))
}

func TestTodayEntry_NoMissFallsBackToLastEntry(t *testing.T) {
	logs := []model.SignInLogEntry{signed(1, nil), signed(2, nil), signed(3, &model.Reward{Name: "VIP", Description: "3 days"})}

	entry, ok := service.TodayEntry(logs)
	require.True(t, ok)
	assert.Equal(t, 3, entry.Day)
	assert.Equal(t, "got VIP 3 days", service.RewardText(entry, ok))
}

func TestTodayEntry_FirstEntryMissed(t *testing.T) {
	entry, ok := service.TodayEntry([]model.SignInLogEntry{missed(1), missed(2)})
	assert.False(t, ok)
	assert.Equal(t, service.NoRewardText, service.RewardText(entry, ok))

	_, ok = service.TodayEntry(nil)
	assert.False(t, ok)
}

func TestRewardText_UnclaimedReward(t *testing.T) {
	entry := model.SignInLogEntry{Day: 5, Status: model.StatusSigned, Reward: &model.Reward{Name: "x", Description: "y"}}
	assert.Equal(t, service.NoRewardText, service.RewardText(entry, true))
}

func TestSignIn_Success(t *testing.T) {
	d := &MockDrive{SignInFunc: func(access string, call int) (*drive.SignInResponse, error) {
		assert.Equal(t, "access-1", access)
		return signedInResponse(5, signed(1, nil), signed(2, nil), missed(3)), nil
	}}
	signer := service.NewSignInExecutor(d, noBackoff, quietLogger())

	result, err := signer.SignIn(context.Background(), "access-1", "13800000000")
	require.NoError(t, err)
	assert.Equal(t, 5, result.StreakCount)
	assert.Equal(t, service.NoRewardText, result.RewardText)
}

func TestSignIn_RetriesTransportOnce(t *testing.T) {
	d := &MockDrive{SignInFunc: func(access string, call int) (*drive.SignInResponse, error) {
		if call == 1 {
			return nil, transportErr("sign in")
		}
		return signedInResponse(1, signed(1, nil)), nil
	}}
	signer := service.NewSignInExecutor(d, noBackoff, quietLogger())

	result, err := signer.SignIn(context.Background(), "access", "acct")
	require.NoError(t, err)
	assert.Equal(t, 1, result.StreakCount)
	assert.Equal(t, 2, d.SignInCalls)
}

func TestSignIn_MissingSuccessIsMalformed(t *testing.T) {
	raw := map[string]any{"message": "gateway says no"}
	d := &MockDrive{SignInFunc: func(string, int) (*drive.SignInResponse, error) {
		return &drive.SignInResponse{Message: "gateway says no", Raw: raw}, nil
	}}
	signer := service.NewSignInExecutor(d, noBackoff, quietLogger())

	_, err := signer.SignIn(context.Background(), "access", "acct")

	var malformed *appErrors.MalformedResponse
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, raw, malformed.Payload)
	assert.Equal(t, 1, d.SignInCalls)
}

func TestSignIn_ExplicitFailureIsRejected(t *testing.T) {
	d := &MockDrive{SignInFunc: func(string, int) (*drive.SignInResponse, error) {
		return &drive.SignInResponse{
			Success: boolPtr(false),
			Code:    "AccessTokenInvalid",
			Message: "token expired",
			Raw:     map[string]any{"success": false},
		}, nil
	}}
	signer := service.NewSignInExecutor(d, noBackoff, quietLogger())

	_, err := signer.SignIn(context.Background(), "access", "acct")

	var rejected *appErrors.ProviderRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "AccessTokenInvalid", rejected.Code)
	assert.Equal(t, "token expired", rejected.Message)
}
