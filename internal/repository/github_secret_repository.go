package repository

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/box"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubSecretRepository writes the comma-joined refresh tokens into a
// GitHub Actions repository secret, so the next scheduled workflow picks up
// the rotated values.
type GitHubSecretRepository struct {
	Token      string
	Repository string // owner/name
	SecretName string
	BaseURL    string
	Client     *http.Client
}

type githubPublicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

func (r *GitHubSecretRepository) SaveRefreshTokens(ctx context.Context, tokens []string) error {
	if r.Token == "" || r.Repository == "" || r.SecretName == "" {
		return errors.New("github token, repository and secret name are required")
	}

	key, err := r.publicKey(ctx)
	if err != nil {
		return err
	}

	sealed, err := sealSecret(key.Key, strings.Join(tokens, ","))
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"encrypted_value": sealed,
		"key_id":          key.KeyID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal secret payload: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/actions/secrets/%s", r.baseURL(), r.Repository, r.SecretName)
	req, err := r.newRequest(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to update github secret: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github returned status %d updating secret: %s", resp.StatusCode, data)
	}
	return nil
}

func (r *GitHubSecretRepository) publicKey(ctx context.Context) (*githubPublicKey, error) {
	url := fmt.Sprintf("%s/repos/%s/actions/secrets/public-key", r.baseURL(), r.Repository)
	req, err := r.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github returned status %d fetching public key: %s", resp.StatusCode, data)
	}

	var key githubPublicKey
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return nil, fmt.Errorf("failed to decode github public key: %w", err)
	}
	return &key, nil
}

func (r *GitHubSecretRepository) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (r *GitHubSecretRepository) baseURL() string {
	if r.BaseURL == "" {
		return defaultGitHubAPI
	}
	return strings.TrimSuffix(r.BaseURL, "/")
}

func (r *GitHubSecretRepository) client() *http.Client {
	if r.Client == nil {
		return &http.Client{Timeout: 15 * time.Second}
	}
	return r.Client
}

// sealSecret encrypts value with a libsodium sealed box for the base64
// encoded repository public key.
func sealSecret(publicKey, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("invalid github public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("invalid github public key length %d", len(raw))
	}

	var pk [32]byte
	copy(pk[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &pk, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}
