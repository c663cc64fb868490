package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docflow-backend/internal/shared/metrics"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, t Task) error {
	const query = `
INSERT INTO tasks (id, user_id, sender, status, channel, target, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	payload := t.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload: %w", err)
	}
	var target sql.NullString
	if t.Target != nil {
		target = sql.NullString{String: *t.Target, Valid: true}
	}
	start := time.Now()
	_, err = r.DB.ExecContext(ctx, query, t.ID, t.UserID, t.Sender, t.Status, t.Channel, target, raw, t.CreatedAt)
	metrics.ObserveDBQuery(start)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Task, error) {
	const query = `
SELECT id, user_id, sender, status, channel, target, payload, created_at
FROM tasks WHERE id = $1`
	var t Task
	var target sql.NullString
	var raw []byte
	start := time.Now()
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Sender, &t.Status, &t.Channel, &target, &raw, &t.CreatedAt)
	metrics.ObserveDBQuery(start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	if target.Valid {
		v := target.String
		t.Target = &v
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &t.Payload); err != nil {
			return Task{}, fmt.Errorf("decode task payload: %w", err)
		}
	}
	return t, nil
}

func (r *PGRepo) CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*) FROM tasks
WHERE created_at >= $1 AND ($2 = '' OR user_id = $2)`
	var n int
	start := time.Now()
	err := r.DB.QueryRowContext(ctx, query, since, userID).Scan(&n)
	metrics.ObserveDBQuery(start)
	return n, err
}
