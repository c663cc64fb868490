package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docflow-backend/internal/shared/metrics"
)

// PGCounter keeps buckets in the rate_limits table.
type PGCounter struct {
	DB  *sql.DB
	Now func() time.Time
}

func (c *PGCounter) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// IncrementIfUnderLimit upserts the bucket and increments it in one statement.
func (c *PGCounter) IncrementIfUnderLimit(ctx context.Context, key string, ceiling int) (Result, error) {
	const upsert = `
INSERT INTO rate_limits (key, count, created_at)
VALUES ($1, 1, $2)
ON CONFLICT (key) DO UPDATE SET count = rate_limits.count + 1
RETURNING count`

	start := time.Now()
	var count int
	err := c.DB.QueryRowContext(ctx, upsert, key, c.now()).Scan(&count)
	metrics.ObserveDBQuery(start)
	if err != nil {
		return Result{}, fmt.Errorf("increment rate counter: %w", err)
	}

	return settle(ctx, count, ceiling, func(ctx context.Context) error {
		const decrement = `UPDATE rate_limits SET count = count - 1 WHERE key = $1 AND count > 0`
		_, err := c.DB.ExecContext(ctx, decrement, key)
		return err
	})
}

// Purge deletes buckets created before cutoff.
func (c *PGCounter) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.DB.ExecContext(ctx, `DELETE FROM rate_limits WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge rate counters: %w", err)
	}
	return res.RowsAffected()
}

var (
	_ Counter = (*PGCounter)(nil)
	_ Purger  = (*PGCounter)(nil)
)
