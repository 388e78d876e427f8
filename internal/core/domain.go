package core

import (
	"errors"
	"strings"
	"time"
)

// Error kinds surfaced by the storage and auth layers. Handlers translate
// them into user-facing responses instead of letting them escape.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// User is an account record. PasswordHash is a bcrypt hash, never plaintext.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Budget       float64
	FullName     string
	Bio          string
	AvatarPath   string
	CreatedAt    time.Time
}

// Expense belongs to exactly one user. Category is a free-text key, not a
// foreign reference, so deleting a category never orphans expense rows.
type Expense struct {
	ID          int64
	UserID      int64
	Title       string
	Amount      float64
	Category    string
	Description string
	Timestamp   time.Time
}

// Category is a user-defined expense category. (UserID, Name) is unique.
type Category struct {
	ID     int64
	UserID int64
	Name   string
	Color  string
}

// Session is a server-side login session keyed by an opaque token.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NormalizeColor ensures a hex color starts with '#'.
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return color
	}
	if !strings.HasPrefix(color, "#") {
		return "#" + color
	}
	return color
}
