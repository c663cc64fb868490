package tags

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"docflow-backend/internal/shared/metrics"
)

const pgUniqueViolation = "23505"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r *PGRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *PGRepo) GetByName(ctx context.Context, ownerID, name string) (Tag, error) {
	const query = `SELECT id, owner_id, name, created_at FROM tags WHERE owner_id = $1 AND name = $2`
	var t Tag
	start := time.Now()
	err := r.DB.QueryRowContext(ctx, query, ownerID, name).Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt)
	metrics.ObserveDBQuery(start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		return Tag{}, err
	}
	return t, nil
}

// GetOrCreate relies on the (owner_id, name) unique key; the no-op update
// makes RETURNING yield the existing row on conflict.
func (r *PGRepo) GetOrCreate(ctx context.Context, ownerID, name string) (Tag, error) {
	const query = `
INSERT INTO tags (id, owner_id, name, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, owner_id, name, created_at`
	var t Tag
	err := r.DB.QueryRowContext(ctx, query, uuid.NewString(), ownerID, name, r.now()).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt)
	if err != nil {
		return Tag{}, err
	}
	return t, nil
}

func (r *PGRepo) Link(ctx context.Context, link DocumentTag) error {
	tagID, err := NormalizeRef(link.TagID)
	if err != nil {
		return err
	}
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	const query = `
INSERT INTO document_tags (document_id, tag_id, is_primary, created_at)
VALUES ($1, $2, $3, $4)`
	_, err = r.DB.ExecContext(ctx, query, link.DocumentID, tagID, link.IsPrimary, createdAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == "document_tags_one_primary" {
			return ErrPrimaryExists
		}
		return ErrDuplicateLink
	}
	return err
}

func (r *PGRepo) DocumentIDs(ctx context.Context, tagID string, primaryOnly bool) ([]string, error) {
	forms, err := RefForms(tagID)
	if err != nil {
		return nil, err
	}
	const query = `
SELECT document_id FROM document_tags
WHERE tag_id IN ($1, $2) AND ($3 = FALSE OR is_primary)
ORDER BY created_at, document_id`
	start := time.Now()
	rows, err := r.DB.QueryContext(ctx, query, forms[0], forms[1], primaryOnly)
	metrics.ObserveDBQuery(start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListFolders(ctx context.Context, ownerID string) ([]Folder, error) {
	const query = `
SELECT t.id, t.name, COUNT(dt.document_id)
FROM tags t
LEFT JOIN document_tags dt ON dt.tag_id IN (t.id::text, replace(t.id::text, '-', ''))
WHERE t.owner_id = $1
GROUP BY t.id, t.name
ORDER BY t.name`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Folder{}
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.TagID, &f.Name, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PGRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE ($1 = '' OR owner_id = $1)`, ownerID).Scan(&n)
	return n, err
}
