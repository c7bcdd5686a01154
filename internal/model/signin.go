// internal/model/signin.go
package model

type SignInStatus string

const (
	StatusSigned SignInStatus = "normal"
	StatusMissed SignInStatus = "miss"
)

type Reward struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SignInLogEntry is one day of the current month's sign-in log.
type SignInLogEntry struct {
	Day             int          `json:"day"`
	Status          SignInStatus `json:"status"`
	Reward          *Reward      `json:"reward,omitempty"`
	IsRewardClaimed bool         `json:"isReward"`
}

type SignInResult struct {
	StreakCount int    `json:"streak_count"`
	RewardText  string `json:"reward_text"`
}
