package audit

import (
	"context"
	"time"
)

// Repo persists audit entries. Entries are never updated or deleted.
type Repo interface {
	Insert(ctx context.Context, e Entry) error
	// CountSince counts entries for action at or after since. An empty userID counts all users.
	CountSince(ctx context.Context, action, userID string, since time.Time) (int, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
}
