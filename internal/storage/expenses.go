package storage

import (
	"context"
	"fmt"
	"time"

	"outlay/internal/core"
)

const expenseColumns = "id, user_id, title, amount, category, description, timestamp"

// ExpenseFilter selects a user's expenses, optionally restricted to an
// inclusive calendar-day range and paginated. Results are always ordered
// by timestamp descending.
type ExpenseFilter struct {
	UserID int64
	Range  *core.DateRange
	Limit  int
	Offset int
}

// CreateExpense inserts an expense for a user. A zero timestamp defaults to
// the current time.
func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, title, amount, category, description, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		e.UserID, e.Title, e.Amount, e.Category, e.Description, ts)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", mapErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create expense id: %w", err)
	}
	return r.ExpenseByID(ctx, id)
}

// ExpenseByID fetches one expense regardless of owner; ownership checks are
// the caller's responsibility so non-owners can be refused distinctly from
// missing rows.
func (r *Repository) ExpenseByID(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	var e core.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Description, &e.Timestamp)
	if err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

// UpdateExpense rewrites the mutable fields (title, amount, category,
// description). Owner and timestamp are immutable.
func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	err := r.mustUpdate(ctx,
		"UPDATE expenses SET title = ?, amount = ?, category = ?, description = ? WHERE id = ?",
		e.Title, e.Amount, e.Category, e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by id.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	if err := r.mustUpdate(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListExpenses returns expenses matching the filter, newest first.
func (r *Repository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE user_id = ?"
	args := []any{f.UserID}

	if f.Range != nil {
		// End is an inclusive calendar day; compare against the next midnight.
		query += " AND timestamp >= ? AND timestamp < ?"
		args = append(args, f.Range.Start, f.Range.End.AddDate(0, 0, 1))
	}

	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Category, &e.Description, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// SumExpenses returns the total amount across all of a user's expenses.
func (r *Repository) SumExpenses(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ?", userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// CountExpenses returns the total number of expenses owned by a user.
func (r *Repository) CountExpenses(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}
