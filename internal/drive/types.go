package drive

import (
	"bytes"
	"encoding/json"

	"github.com/unclebandit/drive-signin/internal/model"
)

// TokenResponse fields are pointers so a missing field can be told apart
// from an empty one.
type TokenResponse struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	UserName     *string `json:"user_name"`
	ExpiresIn    int     `json:"expires_in"`
	Code         Code    `json:"code"`
	Message      string  `json:"message"`

	Raw map[string]any `json:"-"`
}

type SignInResponse struct {
	Success *bool          `json:"success"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Result  *SignInPayload `json:"result"`

	Raw map[string]any `json:"-"`
}

type SignInPayload struct {
	SignInCount int                    `json:"signInCount"`
	SignInLogs  []model.SignInLogEntry `json:"signInLogs"`
}

type RewardResponse struct {
	Success *bool          `json:"success"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Result  *RewardPayload `json:"result"`

	Raw map[string]any `json:"-"`
}

type RewardPayload struct {
	Message string `json:"message"`
}

// Code accepts provider codes sent either as strings or as numbers.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}
