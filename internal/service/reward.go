package service

import (
	"context"
	"log/slog"

	"github.com/unclebandit/drive-signin/internal/drive"
	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
)

// AlreadyRedeemedCode is returned by the provider for a code this account
// has used before.
const AlreadyRedeemedCode = "30009"

const alreadyRedeemedText = "this reward code has already been redeemed."

type RewardClient interface {
	RedeemCode(ctx context.Context, accessToken, code string) (*drive.RewardResponse, error)
}

// RewardRedeemer exchanges one fixed promotional code. It is best effort and
// never retried.
type RewardRedeemer struct {
	client RewardClient
	code   string
	logger *slog.Logger
}

func NewRewardRedeemer(client RewardClient, code string, logger *slog.Logger) *RewardRedeemer {
	return &RewardRedeemer{client: client, code: code, logger: logger}
}

func (r *RewardRedeemer) Redeem(ctx context.Context, accessToken string) model.Redemption {
	resp, err := r.client.RedeemCode(ctx, accessToken, r.code)
	if err != nil {
		r.logger.Error("request error while redeeming reward code", "error", err)
		if appErrors.IsTransport(err) {
			return model.Redemption{
				Status:  model.RedemptionTransportFailed,
				Message: "request error while redeeming reward code",
			}
		}
		return model.Redemption{
			Status:  model.RedemptionMalformed,
			Message: "malformed redemption response",
		}
	}

	switch {
	case resp.Success == nil:
		return model.Redemption{
			Status:  model.RedemptionMalformed,
			Message: "malformed redemption response: " + resp.Message,
		}
	case *resp.Success:
		msg := ""
		if resp.Result != nil {
			msg = resp.Result.Message
		}
		return model.Redemption{
			Status:  model.RedemptionRedeemed,
			Message: "reward code redeemed: " + msg,
		}
	case resp.Code == AlreadyRedeemedCode:
		return model.Redemption{
			Status:  model.RedemptionAlreadyRedeemed,
			Message: alreadyRedeemedText,
		}
	default:
		return model.Redemption{
			Status:  model.RedemptionRejected,
			Message: "reward code redemption failed: " + resp.Message,
		}
	}
}
