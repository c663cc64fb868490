package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"docflow-backend/internal/shared/storage/object/local"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	doc := `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, "Invoice 42")
	got, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "scan.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if got != "Invoice 42" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytes_PlainText(t *testing.T) {
	got, err := ExtractTextFromBytes(context.Background(), []byte("vendor,total\nacme,10"), "text/csv; charset=utf-8", "r.csv")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(got, "vendor,total") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextFromBytes_BadPDF(t *testing.T) {
	if _, err := ExtractTextFromBytes(context.Background(), []byte("%PDF-not really"), "application/pdf", "x.pdf"); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestExtractTextFromStore(t *testing.T) {
	store := local.New(t.TempDir())
	ctx := context.Background()
	obj, err := store.Put(ctx, "u1", "note.txt", "text/plain", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := ExtractText(ctx, store, obj.Key, obj.ContentType, "note.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextFromBytes_JSON(t *testing.T) {
	got, err := ExtractTextFromBytes(context.Background(), []byte(`{"a":1}`), "application/json", "a.json")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextFromBytes_InvalidUTF8(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte{0xff, 0xfe, 0xfd}, "text/plain", "x.txt")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name, mime, file, want string
	}{
		{"params stripped", "Text/Plain; charset=utf-8", "a.txt", "text/plain"},
		{"zip by extension", "application/zip", "scan.DOCX", mimeDOCX},
		{"zip stays zip", "application/zip", "bundle.zip", "application/zip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.mime, tc.file, nil); got != tc.want {
				t.Fatalf("Normalize = %q, want %q", got, tc.want)
			}
		})
	}
}
