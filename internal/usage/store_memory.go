package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Insert(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memoryStore) SumSince(ctx context.Context, userID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, r := range s.records {
		if r.UserID == userID && !r.At.Before(since) {
			total += r.Credits
		}
	}
	return total, nil
}
