package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docflow-backend/internal/shared/metrics"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, owner_id, filename, mime, blob_key, size_bytes, extracted_text, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var extracted sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.FileName,
		&doc.Mime,
		&doc.BlobKey,
		&doc.SizeBytes,
		&extracted,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	if extracted.Valid {
		text := extracted.String
		doc.ExtractedText = &text
	}
	return doc, nil
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, owner_id, filename, mime, blob_key, size_bytes, extracted_text, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var extracted sql.NullString
	if doc.ExtractedText != nil {
		extracted = sql.NullString{String: *doc.ExtractedText, Valid: true}
	}
	start := time.Now()
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.FileName,
		doc.Mime,
		doc.BlobKey,
		doc.SizeBytes,
		extracted,
		doc.CreatedAt,
	)
	metrics.ObserveDBQuery(start)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	start := time.Now()
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	metrics.ObserveDBQuery(start)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByIDs expands ids into one placeholder each so only scalar arguments
// reach the driver.
func (r *PGRepo) ListByIDs(ctx context.Context, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY created_at, id`

	start := time.Now()
	rows, err := r.DB.QueryContext(ctx, query, args...)
	metrics.ObserveDBQuery(start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SetExtractedText writes text once.
func (r *PGRepo) SetExtractedText(ctx context.Context, id, text string) (bool, error) {
	const query = `UPDATE documents SET extracted_text = $2 WHERE id = $1 AND extracted_text IS NULL`
	start := time.Now()
	res, err := r.DB.ExecContext(ctx, query, id, text)
	metrics.ObserveDBQuery(start)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepo) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	var err error
	start := time.Now()
	if ownerID == "" {
		err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	} else {
		err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE owner_id = $1`, ownerID).Scan(&n)
	}
	metrics.ObserveDBQuery(start)
	return n, err
}
