package repository

import (
	"context"
	"strings"
)

// StaticCredentialSource serves the refresh tokens given in configuration.
type StaticCredentialSource struct {
	Tokens []string
}

func (s *StaticCredentialSource) LoadRefreshTokens(ctx context.Context) ([]string, error) {
	return CleanTokens(s.Tokens), nil
}

// DiscardSink drops rotated tokens.
type DiscardSink struct{}

func (DiscardSink) SaveRefreshTokens(ctx context.Context, tokens []string) error { return nil }

// CleanTokens trims tokens and drops empty entries, which show up when a
// comma-separated list has a trailing comma.
func CleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
