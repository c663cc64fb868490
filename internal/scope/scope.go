// Package scope maps a folder or tag selector to the documents an action runs over.
package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docflow-backend/internal/documents"
	"docflow-backend/internal/tags"
)

// Scope types.
const (
	TypeFolder = "folder"
	TypeTag    = "tag"
)

var (
	ErrInvalidScope = errors.New("invalid scope")
	ErrTagNotFound  = errors.New("tag not found")
	ErrEmptyScope   = errors.New("no documents found for the given scope")
)

// Scope selects documents by folder or tag name, or by an explicit id list.
// Name and IDs are mutually exclusive.
type Scope struct {
	Type string   `json:"type"`
	Name string   `json:"name,omitempty"`
	IDs  []string `json:"ids,omitempty"`
}

// Resolution is the concrete document set for a scope. Tag is set when the
// scope named a tag or folder.
type Resolution struct {
	Documents []documents.Document
	Tag       *tags.Tag
}

// IDs returns the resolved document ids in order.
func (r Resolution) IDs() []string {
	out := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		out = append(out, d.ID)
	}
	return out
}

// TagSource looks up tags and their linked documents.
type TagSource interface {
	Lookup(ctx context.Context, ownerID, name string) (tags.Tag, error)
	DocumentIDs(ctx context.Context, tag tags.Tag, primaryOnly bool) ([]string, error)
}

// DocumentSource loads documents by id.
type DocumentSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]documents.Document, error)
}

// Resolver resolves scopes for one owner at a time.
type Resolver struct {
	Tags TagSource
	Docs DocumentSource
}

// NewResolver constructs a Resolver.
func NewResolver(tagSrc TagSource, docSrc DocumentSource) *Resolver {
	return &Resolver{Tags: tagSrc, Docs: docSrc}
}

// Validate checks the scope shape without touching storage.
func (s Scope) Validate() error {
	switch s.Type {
	case TypeFolder, TypeTag:
	default:
		return fmt.Errorf("%w: type must be %q or %q", ErrInvalidScope, TypeFolder, TypeTag)
	}
	hasName := strings.TrimSpace(s.Name) != ""
	hasIDs := len(s.IDs) > 0
	if hasName && hasIDs {
		return fmt.Errorf("%w: name and ids are mutually exclusive", ErrInvalidScope)
	}
	if !hasName && !hasIDs {
		return fmt.Errorf("%w: name or ids is required", ErrInvalidScope)
	}
	return nil
}

// Resolve returns the owner's documents selected by sc. A folder scope follows
// primary links only; a tag scope follows every link, in either stored id form.
func (r *Resolver) Resolve(ctx context.Context, ownerID string, sc Scope) (Resolution, error) {
	if err := sc.Validate(); err != nil {
		return Resolution{}, err
	}

	if len(sc.IDs) > 0 {
		docs, err := r.Docs.ListByIDs(ctx, sc.IDs)
		if err != nil {
			return Resolution{}, fmt.Errorf("load scope documents: %w", err)
		}
		owned := docs[:0]
		for _, d := range docs {
			if d.OwnerID == ownerID {
				owned = append(owned, d)
			}
		}
		if len(owned) == 0 {
			return Resolution{}, ErrEmptyScope
		}
		return Resolution{Documents: owned}, nil
	}

	tag, err := r.Tags.Lookup(ctx, ownerID, sc.Name)
	if err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return Resolution{}, ErrTagNotFound
		}
		return Resolution{}, fmt.Errorf("lookup tag: %w", err)
	}

	ids, err := r.Tags.DocumentIDs(ctx, tag, sc.Type == TypeFolder)
	if err != nil {
		return Resolution{}, fmt.Errorf("list tag documents: %w", err)
	}
	if len(ids) == 0 {
		return Resolution{}, ErrEmptyScope
	}
	docs, err := r.Docs.ListByIDs(ctx, ids)
	if err != nil {
		return Resolution{}, fmt.Errorf("load scope documents: %w", err)
	}
	if len(docs) == 0 {
		return Resolution{}, ErrEmptyScope
	}
	return Resolution{Documents: docs, Tag: &tag}, nil
}
