// Package extract turns stored document bytes into plain text for prompts.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"docflow-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
	mimeJSON = "application/json"
)

// MaxBytes caps how much of a blob is read for extraction.
const MaxBytes = 20 << 20

var (
	ErrUnsupported = errors.New("unsupported mime type")
	ErrTooLarge    = errors.New("document too large to extract")
)

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	mimePDF:  extractPDF,
	mimeDOCX: extractDOCX,
	mimeJSON: extractUTF8,
}

// ExtractText reads a stored object and returns its plain text.
func ExtractText(ctx context.Context, store object.ObjectStore, key, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("extract key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("extract key=%s: read: %w", key, err)
	}
	if len(raw) > MaxBytes {
		return "", fmt.Errorf("extract key=%s: %w", key, ErrTooLarge)
	}

	text, err := ExtractTextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return "", fmt.Errorf("extract key=%s: %w", key, err)
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload. Any text/*
// type is returned as-is when it is valid UTF-8.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mime := Normalize(mimeType, fileName, data)
	if fn, ok := extractors[mime]; ok {
		return fn(data)
	}
	if strings.HasPrefix(mime, "text/") {
		return extractUTF8(data)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
}

// Normalize strips parameters from mimeType and resolves zip containers
// that are really Word documents.
func Normalize(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != mimeZip {
		return clean
	}
	if zipHas(data, "word/document.xml") || strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return mimeDOCX
	}
	return clean
}

func extractUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid utf-8", ErrUnsupported)
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	f := findZipEntry(zr, "word/document.xml")
	if f == nil {
		return "", errors.New("docx: word/document.xml missing")
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return docxText(rc)
}

// docxText keeps character data and ends a line at each paragraph or break.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func zipHas(data []byte, name string) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	return findZipEntry(zr, name) != nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}
