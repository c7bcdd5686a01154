package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/unclebandit/drive-signin/internal/model"
)

// CredentialRepositoryInterface is both the source and the sink of refresh
// tokens.
type CredentialRepositoryInterface interface {
	LoadRefreshTokens(ctx context.Context) ([]string, error)
	SaveRefreshTokens(ctx context.Context, tokens []string) error
}

// CredentialRepository keeps refresh tokens in Postgres, one row per account
// position.
type CredentialRepository struct {
	DB *sql.DB
}

const accountsSchema = `
    CREATE TABLE IF NOT EXISTS accounts (
        position      INTEGER PRIMARY KEY,
        refresh_token TEXT NOT NULL,
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )
`

// EnsureSchema creates the accounts table if it does not exist.
func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, accountsSchema)
	return err
}

// ListAccounts fetches every account ordered by position
func (r *CredentialRepository) ListAccounts(ctx context.Context) ([]model.Account, error) {
	query := `
        SELECT position, refresh_token, updated_at
        FROM accounts
        ORDER BY position
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Position, &a.RefreshToken, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *CredentialRepository) LoadRefreshTokens(ctx context.Context) ([]string, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(accounts))
	for _, a := range accounts {
		tokens = append(tokens, a.RefreshToken)
	}
	return tokens, nil
}

// SaveRefreshTokens upserts every token at its position in one transaction.
func (r *CredentialRepository) SaveRefreshTokens(ctx context.Context, tokens []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO accounts (position, refresh_token, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (position) DO UPDATE
        SET refresh_token = EXCLUDED.refresh_token, updated_at = NOW()
    `
	for i, token := range tokens {
		if _, err := tx.ExecContext(ctx, query, i, token); err != nil {
			return fmt.Errorf("failed to save refresh token at position %d: %w", i, err)
		}
	}

	return tx.Commit()
}
