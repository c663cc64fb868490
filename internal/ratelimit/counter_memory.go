package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryBucket struct {
	count     atomic.Int64
	createdAt time.Time
}

// MemoryCounter is a single-process Counter for dev and tests.
// LoadOrStore plus atomic adds mirror the store's upsert-increment.
type MemoryCounter struct {
	buckets sync.Map // key -> *memoryBucket
	Now     func() time.Time
}

// NewMemoryCounter constructs a MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{Now: time.Now}
}

// IncrementIfUnderLimit increments the bucket for key.
func (c *MemoryCounter) IncrementIfUnderLimit(ctx context.Context, key string, ceiling int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	v, _ := c.buckets.LoadOrStore(key, &memoryBucket{createdAt: c.Now().UTC()})
	b := v.(*memoryBucket)
	count := int(b.count.Add(1))
	return settle(ctx, count, ceiling, func(context.Context) error {
		b.count.Add(-1)
		return nil
	})
}

// Count returns the stored count for key.
func (c *MemoryCounter) Count(key string) int {
	v, ok := c.buckets.Load(key)
	if !ok {
		return 0
	}
	return int(v.(*memoryBucket).count.Load())
}

// Purge deletes buckets created before cutoff.
func (c *MemoryCounter) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	c.buckets.Range(func(k, v any) bool {
		if v.(*memoryBucket).createdAt.Before(cutoff) {
			c.buckets.Delete(k)
			n++
		}
		return true
	})
	return n, ctx.Err()
}

var (
	_ Counter = (*MemoryCounter)(nil)
	_ Purger  = (*MemoryCounter)(nil)
)
