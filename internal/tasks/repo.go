package tasks

import (
	"context"
	"time"
)

// Repo persists tasks.
type Repo interface {
	Create(ctx context.Context, t Task) error
	GetByID(ctx context.Context, id string) (Task, error)
	// CountCreatedSince counts tasks created at or after since. An empty
	// userID counts all users.
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)
}
