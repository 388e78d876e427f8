package storage

import (
	"context"
	"fmt"
	"time"

	"outlay/internal/core"
)

// CreateSession stores a login session.
func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapErr(err))
	}
	return nil
}

// SessionUser resolves a session token to its user. Expired or unknown
// tokens return core.ErrNotFound.
func (r *Repository) SessionUser(ctx context.Context, token string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.budget, u.full_name, u.bio, u.avatar_path, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now())
	return scanUser(row)
}

// DeleteSession removes a session by token. Deleting an unknown token is
// not an error.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions sweeps sessions past their expiry and returns how
// many were removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
