// internal/model/credential.go
package model

import "time"

// AccessGrant is the result of a successful token exchange.
type AccessGrant struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserName     string    `json:"user_name"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Account stores a refresh token at a fixed position of the configured list.
type Account struct {
	Position     int        `db:"position" json:"position"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
