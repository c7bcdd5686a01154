// internal/model/outcome.go
package model

type SessionState int

const (
	StateStart SessionState = iota
	StateTokenAcquired
	StateSignedIn
	StateRewardAttempted
	StateDone
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateTokenAcquired:
		return "TOKEN_ACQUIRED"
	case StateSignedIn:
		return "SIGNED_IN"
	case StateRewardAttempted:
		return "REWARD_ATTEMPTED"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type RedemptionStatus string

const (
	RedemptionRedeemed        RedemptionStatus = "redeemed"
	RedemptionAlreadyRedeemed RedemptionStatus = "already_redeemed"
	RedemptionRejected        RedemptionStatus = "rejected"
	RedemptionMalformed       RedemptionStatus = "malformed"
	RedemptionTransportFailed RedemptionStatus = "transport_failed"
)

// Redemption is the outcome of the optional reward code exchange.
type Redemption struct {
	Status  RedemptionStatus `json:"status"`
	Message string           `json:"message"`
}

// AccountOutcome is produced once per account per run and never modified
// afterwards.
type AccountOutcome struct {
	AccountID           string       `json:"account_id"`
	Success             bool         `json:"success"`
	StreakCount         int          `json:"streak_count"`
	RewardText          string       `json:"reward_text,omitempty"`
	Err                 error        `json:"-"`
	UpdatedRefreshToken string       `json:"-"`
	State               SessionState `json:"state"`
	TokenAcquired       bool         `json:"token_acquired"`
	Redemption          *Redemption  `json:"redemption,omitempty"`
}
