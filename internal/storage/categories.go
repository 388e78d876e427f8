package storage

import (
	"context"
	"fmt"

	"outlay/internal/core"
)

// CreateCategory inserts a user-defined category. A duplicate (user, name)
// pair surfaces as core.ErrConflict.
func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) (*core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (user_id, name, color) VALUES (?, ?, ?)",
		c.UserID, c.Name, core.NormalizeColor(c.Color))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create category id: %w", err)
	}
	return r.CategoryByID(ctx, id)
}

// CategoryByID fetches one category regardless of owner.
func (r *Repository) CategoryByID(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, color FROM categories WHERE id = ?", id)
	var c core.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// ListCategories returns a user's categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, name, color FROM categories WHERE user_id = ? ORDER BY name ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryExists reports whether the user already has a category with this name.
func (r *Repository) CategoryExists(ctx context.Context, userID int64, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE user_id = ? AND name = ?", userID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return n > 0, nil
}

// DeleteCategory removes a category by id. Expense rows keep their free-text
// category key.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if err := r.mustUpdate(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
