package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docflow-backend/internal/shared/metrics"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Insert(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO audit_logs (user_id, action, entity_type, entity_id, metadata, at)
VALUES ($1, $2, $3, $4, $5, $6)`

	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	start := time.Now()
	_, err = r.DB.ExecContext(ctx, query, e.UserID, e.Action, e.EntityType, e.EntityID, raw, e.At)
	metrics.ObserveDBQuery(start)
	return err
}

func (r *PGRepo) CountSince(ctx context.Context, action, userID string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*) FROM audit_logs
WHERE action = $1 AND at >= $2 AND ($3 = '' OR user_id = $3)`
	var n int
	err := r.DB.QueryRowContext(ctx, query, action, since, userID).Scan(&n)
	return n, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
SELECT id, user_id, action, entity_type, entity_id, metadata, at
FROM audit_logs
WHERE user_id = $1
ORDER BY at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &raw, &e.At); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
