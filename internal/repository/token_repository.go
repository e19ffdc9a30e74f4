package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// TokenRepo persists issued access tokens (full encoded value, UNIQUE
// column). A token is honored only while its row exists, so deleting a row
// revokes the token even though its signature would still verify.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Issue records a token for a user. Registration and login always add
// rows; multiple live tokens per user are allowed (multi-device sessions).
func (r *TokenRepo) Issue(ctx context.Context, userID uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (user_id, token) VALUES (?,?)",
		userID, token)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrDuplicateToken
	}
	return err
}

// Exists reports whether the token is still recorded as issued for the
// user. This is the revocation check: signature validity alone is not
// enough to authenticate.
func (r *TokenRepo) Exists(ctx context.Context, userID uint64, token string) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM user_tokens WHERE user_id=? AND token=? LIMIT 1",
		userID, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke deletes the row for one token, ending that session. ErrNotFound
// is returned when the token was never issued or is already revoked.
func (r *TokenRepo) Revoke(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE token=?", token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser deletes every token of a user, logging them out of all
// sessions. Also useful as an administrative sweep against unbounded token
// growth, since issuing never replaces rows.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM user_tokens WHERE user_id=?", userID)
	return err
}
