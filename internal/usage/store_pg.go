package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"docflow-backend/internal/shared/metrics"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Insert(ctx context.Context, r Record) error {
	start := time.Now()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO usage (user_id, credits, at) VALUES ($1, $2, $3)`, r.UserID, r.Credits, r.At)
	metrics.ObserveDBQuery(start)
	return err
}

// SumSince groups the user's rows and sums credits. No rows means zero.
func (s *pgStore) SumSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `
SELECT user_id, SUM(credits)
FROM usage
WHERE user_id = $1 AND at >= $2
GROUP BY user_id`
	var uid string
	var total int
	err := s.DB.QueryRowContext(ctx, query, userID, since).Scan(&uid, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, err
}
