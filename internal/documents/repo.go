package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// ListByIDs returns the documents that exist among ids, oldest first.
	ListByIDs(ctx context.Context, ids []string) ([]Document, error)
	// SetExtractedText stores text only when none is set yet and reports
	// whether the row changed.
	SetExtractedText(ctx context.Context, id, text string) (bool, error)
	// Count counts documents for ownerID, or all documents when ownerID is empty.
	Count(ctx context.Context, ownerID string) (int, error)
}
