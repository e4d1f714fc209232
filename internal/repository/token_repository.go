package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
// Rows are keyed by email rather than a pool id: one email can map to two
// identities, and keying by email forces every refresh to re-run role
// resolution instead of replaying a possibly stale identity pair.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row for an email.
func (r *TokenRepo) StoreRefresh(ctx context.Context, email, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (email, token_hash, expires_at) VALUES (?,?,?)",
		strings.ToLower(strings.TrimSpace(email)), tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning email if a non-revoked, non-expired
// token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		email     string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT email, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&email, &expiresAt, &revokedAt)
	if err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return "", sql.ErrNoRows
	}
	return email, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForEmail revokes every active token issued to an email,
// terminating all of that identity's sessions at once.
func (r *TokenRepo) RevokeAllForEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE email=? AND revoked_at IS NULL",
		strings.ToLower(strings.TrimSpace(email)))
	return err
}
