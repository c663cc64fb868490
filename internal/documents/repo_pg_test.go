package documents

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoListByIDsExpandsPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "filename", "mime", "blob_key", "size_bytes", "extracted_text", "created_at"}).
		AddRow("d1", "u1", "a.txt", "text/plain", "k1", int64(3), "abc", now).
		AddRow("d2", "u1", "b.pdf", "application/pdf", "k2", int64(9), nil, now)

	mock.ExpectQuery(`WHERE id IN \(\$1, \$2\) ORDER BY created_at, id`).
		WithArgs("d1", "d2").
		WillReturnRows(rows)

	docs, err := repo.ListByIDs(context.Background(), []string{"d1", "d2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].Text() != "abc" || docs[1].ExtractedText != nil {
		t.Fatalf("unexpected extracted text: %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListByIDsEmptySkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	docs, err := (&PGRepo{DB: db}).ListByIDs(context.Background(), nil)
	if err != nil || len(docs) != 0 {
		t.Fatalf("expected empty result, got %v %v", docs, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSetExtractedTextOnlyOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	mock.ExpectExec(`UPDATE documents SET extracted_text = \$2 WHERE id = \$1 AND extracted_text IS NULL`).
		WithArgs("d1", "text").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.SetExtractedText(context.Background(), "d1", "text")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if changed {
		t.Fatalf("expected no change when text already set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM documents WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = (&PGRepo{DB: db}).GetByID(context.Background(), "missing")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
