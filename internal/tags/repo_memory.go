package tags

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo. Links keep the tag id exactly as given,
// so legacy compact ids can be stored and matched like they are in Postgres.
type MemoryRepo struct {
	mu    sync.RWMutex
	tags  map[string]Tag // ownerID + "\x00" + name -> tag
	links []DocumentTag
	Now   func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tags: make(map[string]Tag), Now: time.Now}
}

func tagKey(ownerID, name string) string {
	return ownerID + "\x00" + name
}

func (r *MemoryRepo) GetByName(ctx context.Context, ownerID, name string) (Tag, error) {
	if err := ctx.Err(); err != nil {
		return Tag{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[tagKey(ownerID, name)]
	if !ok {
		return Tag{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) GetOrCreate(ctx context.Context, ownerID, name string) (Tag, error) {
	if err := ctx.Err(); err != nil {
		return Tag{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tagKey(ownerID, name)
	if t, ok := r.tags[key]; ok {
		return t, nil
	}
	t := Tag{ID: uuid.NewString(), OwnerID: ownerID, Name: name, CreatedAt: r.Now().UTC()}
	r.tags[key] = t
	return t, nil
}

func (r *MemoryRepo) Link(ctx context.Context, link DocumentTag) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.DocumentID != link.DocumentID {
			continue
		}
		if SameRef(l.TagID, link.TagID) {
			return ErrDuplicateLink
		}
		if l.IsPrimary && link.IsPrimary {
			return ErrPrimaryExists
		}
	}
	r.links = append(r.links, link)
	return nil
}

func (r *MemoryRepo) DocumentIDs(ctx context.Context, tagID string, primaryOnly bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := NormalizeRef(tagID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []string{}
	for _, l := range r.links {
		if primaryOnly && !l.IsPrimary {
			continue
		}
		if SameRef(l.TagID, tagID) {
			out = append(out, l.DocumentID)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListFolders(ctx context.Context, ownerID string) ([]Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Folder{}
	for _, t := range r.tags {
		if t.OwnerID != ownerID {
			continue
		}
		f := Folder{TagID: t.ID, Name: t.Name}
		for _, l := range r.links {
			if SameRef(l.TagID, t.ID) {
				f.Count++
			}
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ownerID == "" {
		return len(r.tags), nil
	}
	n := 0
	for _, t := range r.tags {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Links returns a copy of every association.
func (r *MemoryRepo) Links() []DocumentTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocumentTag, len(r.links))
	copy(out, r.links)
	return out
}
