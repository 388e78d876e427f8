// Package storage implements the SQLite repository behind the application.
// All reads and writes go through Repository methods; constraint violations
// are mapped to core.ErrConflict and missing rows to core.ErrNotFound so
// callers never see driver-level errors.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"outlay/internal/core"

	_ "modernc.org/sqlite"
)

// Repository wraps a SQLite database handle.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
// ":memory:" opens a private in-memory database, used by tests and
// read-only deployments.
func Open(path string) (*Repository, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection also keeps an
	// in-memory database from being silently duplicated per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapErr converts driver errors into the repository's error kinds.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrNotFound
	case strings.Contains(err.Error(), "constraint failed"):
		return fmt.Errorf("%v: %w", err, core.ErrConflict)
	default:
		return err
	}
}
