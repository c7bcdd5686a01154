// Package drive is a thin HTTP client for the cloud-drive account and member
// APIs. Each call is a single attempt; retries and interpretation of the
// payloads belong to the service layer.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/drive-signin/internal/errors"
)

const (
	DefaultAuthURL   = "https://auth.aliyundrive.com"
	DefaultMemberURL = "https://member.aliyundrive.com"
)

// Client talks to the provider endpoints.
type Client struct {
	authURL    string
	memberURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithBaseURLs points the client at other hosts, e.g. an httptest server.
func WithBaseURLs(authURL, memberURL string) Option {
	return func(c *Client) {
		c.authURL = strings.TrimSuffix(authURL, "/")
		c.memberURL = strings.TrimSuffix(memberURL, "/")
	}
}

func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// NewClient creates a client with a 15 second timeout that paces requests to
// two per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		authURL:    DefaultAuthURL,
		memberURL:  DefaultMemberURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestToken exchanges a refresh token.
func (c *Client) RequestToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}

	var out TokenResponse
	raw, err := c.post(ctx, "token exchange", c.authURL+"/v2/account/token", "", body, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// SignInList signs in for today and returns the month's sign-in log.
func (c *Client) SignInList(ctx context.Context, accessToken string) (*SignInResponse, error) {
	body := map[string]bool{"isReward": true}

	var out SignInResponse
	raw, err := c.post(ctx, "sign in", c.memberURL+"/v1/activity/sign_in_list?_rx-s=mobile", accessToken, body, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// RedeemCode exchanges a promotional reward code.
func (c *Client) RedeemCode(ctx context.Context, accessToken, code string) (*RewardResponse, error) {
	body := map[string]string{"code": code}

	var out RewardResponse
	raw, err := c.post(ctx, "reward redemption", c.memberURL+"/v1/users/rewards", accessToken, body, &out)
	if err != nil {
		return nil, err
	}
	out.Raw = raw
	return &out, nil
}

// post sends a JSON body and decodes the JSON answer into out. Provider error
// bodies come back with 4xx statuses, so only 5xx is treated as a transport
// failure.
func (c *Client) post(ctx context.Context, op, url, accessToken string, body, out any) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, appErrors.NewTransport(op, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.NewTransport(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.NewTransport(op, err)
	}
	if resp.StatusCode >= 500 {
		return nil, appErrors.NewTransport(op, fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, appErrors.NewMalformed(op, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, appErrors.NewMalformed(op, raw)
	}
	return raw, nil
}
