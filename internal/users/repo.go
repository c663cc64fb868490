package users

import (
	"context"

	"docflow-backend/internal/shared/auth"
)

// Repo persists users.
type Repo interface {
	// Upsert inserts the user or refreshes its email. An existing role is kept.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, userID string, role auth.Role) error

	// CreateWithPassword inserts a login account. A second account with the
	// same email, compared case-insensitively, gets ErrEmailTaken.
	CreateWithPassword(ctx context.Context, user User, passwordHash string) error
	// GetCredentials finds a login account by email and returns its hash.
	GetCredentials(ctx context.Context, email string) (User, string, error)
}
