// Package tags manages per-owner tags and their links to documents.
package tags

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service wraps tag persistence with upload-time validation.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// SplitNames parses a comma separated list, dropping blanks and duplicates.
func SplitNames(raw string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Lookup finds the owner's tag by name.
func (s *Service) Lookup(ctx context.Context, ownerID, name string) (Tag, error) {
	return s.Repo.GetByName(ctx, ownerID, strings.TrimSpace(name))
}

// Attach links a freshly created document to its folder and secondary tags.
// Secondary names equal to the primary are skipped so the document keeps
// exactly one link to its folder.
func (s *Service) Attach(ctx context.Context, ownerID, documentID, primary string, secondaries []string) (Tag, []Tag, error) {
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return Tag{}, nil, ErrInvalidName
	}
	folder, err := s.Repo.GetOrCreate(ctx, ownerID, primary)
	if err != nil {
		return Tag{}, nil, fmt.Errorf("ensure tag %q: %w", primary, err)
	}
	now := s.Now().UTC()
	if err := s.Repo.Link(ctx, DocumentTag{DocumentID: documentID, TagID: folder.ID, IsPrimary: true, CreatedAt: now}); err != nil {
		return Tag{}, nil, fmt.Errorf("link primary tag: %w", err)
	}

	var linked []Tag
	for _, name := range secondaries {
		name = strings.TrimSpace(name)
		if name == "" || name == primary {
			continue
		}
		t, err := s.Repo.GetOrCreate(ctx, ownerID, name)
		if err != nil {
			return Tag{}, nil, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		if err := s.Repo.Link(ctx, DocumentTag{DocumentID: documentID, TagID: t.ID, CreatedAt: now}); err != nil {
			return Tag{}, nil, fmt.Errorf("link tag %q: %w", name, err)
		}
		linked = append(linked, t)
	}
	return folder, linked, nil
}

// LinkSecondary adds a non-primary link from documentID to tagID.
func (s *Service) LinkSecondary(ctx context.Context, documentID, tagID string) error {
	return s.Repo.Link(ctx, DocumentTag{DocumentID: documentID, TagID: tagID, CreatedAt: s.Now().UTC()})
}

// DocumentIDs lists documents linked to tag. primaryOnly limits the result to
// documents whose folder is tag.
func (s *Service) DocumentIDs(ctx context.Context, tag Tag, primaryOnly bool) ([]string, error) {
	return s.Repo.DocumentIDs(ctx, tag.ID, primaryOnly)
}

// Folders lists the owner's tags with association counts.
func (s *Service) Folders(ctx context.Context, ownerID string) ([]Folder, error) {
	return s.Repo.ListFolders(ctx, ownerID)
}

// Count counts tags for ownerID, or all tags when ownerID is empty.
func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	return s.Repo.Count(ctx, ownerID)
}
