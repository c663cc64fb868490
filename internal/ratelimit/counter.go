// Package ratelimit holds the per-key daily counter that gates task creation.
//
// Every backend performs the increment as one atomic store operation and,
// when the new count passes the ceiling, issues a compensating decrement so
// rejected attempts never leave the stored count above the ceiling.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of one increment attempt.
type Result struct {
	Accepted  bool
	Count     int
	Remaining int
}

// Counter increments a per-key counter unless it would pass ceiling.
type Counter interface {
	IncrementIfUnderLimit(ctx context.Context, key string, ceiling int) (Result, error)
}

// Purger drops buckets created before cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// BucketTTL is how long a bucket lives after creation.
const BucketTTL = 24 * time.Hour

// Key builds the bucket key "<user>:<source>:<YYYY-MM-DD>" using the UTC day.
func Key(userID, source string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", userID, strings.TrimSpace(source), at.UTC().Format("2006-01-02"))
}

// settle turns a post-increment count into a Result, calling rollback when
// the count overshot the ceiling.
func settle(ctx context.Context, count, ceiling int, rollback func(context.Context) error) (Result, error) {
	if count <= ceiling {
		return Result{Accepted: true, Count: count, Remaining: ceiling - count}, nil
	}
	if err := rollback(ctx); err != nil {
		return Result{}, fmt.Errorf("rollback rate counter: %w", err)
	}
	return Result{Accepted: false, Count: ceiling, Remaining: 0}, nil
}
