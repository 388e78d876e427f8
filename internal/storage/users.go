package storage

import (
	"context"
	"fmt"

	"outlay/internal/core"
)

const userColumns = "id, username, email, password_hash, budget, full_name, bio, avatar_path, created_at"

func scanUser(row interface{ Scan(...any) error }) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Budget,
		&u.FullName, &u.Bio, &u.AvatarPath, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateUser inserts a new account. A duplicate username or email surfaces
// as core.ErrConflict, including when a concurrent insert wins the race
// after a pre-check passed.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user id: %w", err)
	}
	return r.UserByID(ctx, id)
}

// UserByID fetches a user by primary key.
func (r *Repository) UserByID(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UserByUsername fetches a user by unique username.
func (r *Repository) UserByUsername(ctx context.Context, username string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// UserByEmail fetches a user by unique email.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// UpdateBudget sets the user's monthly budget.
func (r *Repository) UpdateBudget(ctx context.Context, userID int64, budget float64) error {
	if err := r.mustUpdate(ctx, "UPDATE users SET budget = ? WHERE id = ?", budget, userID); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// UpdateProfile sets the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, fullName, bio string) error {
	if err := r.mustUpdate(ctx, "UPDATE users SET full_name = ?, bio = ? WHERE id = ?", fullName, bio, userID); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateAvatarPath records the stored avatar reference.
func (r *Repository) UpdateAvatarPath(ctx context.Context, userID int64, path string) error {
	if err := r.mustUpdate(ctx, "UPDATE users SET avatar_path = ? WHERE id = ?", path, userID); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

// mustUpdate runs an UPDATE/DELETE and reports core.ErrNotFound when no
// row matched.
func (r *Repository) mustUpdate(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
