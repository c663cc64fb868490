package tags

import "context"

// Repo persists tags and document associations.
type Repo interface {
	GetByName(ctx context.Context, ownerID, name string) (Tag, error)
	// GetOrCreate returns the owner's tag with name, creating it if missing.
	GetOrCreate(ctx context.Context, ownerID, name string) (Tag, error)
	Link(ctx context.Context, link DocumentTag) error
	// DocumentIDs returns documents linked to tagID, in link order.
	DocumentIDs(ctx context.Context, tagID string, primaryOnly bool) ([]string, error)
	ListFolders(ctx context.Context, ownerID string) ([]Folder, error)
	// Count counts tags. An empty ownerID counts every owner.
	Count(ctx context.Context, ownerID string) (int, error)
}
