package object

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"docflow-backend/internal/shared/util"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	// Put stores r under a fresh key in the owner's namespace. An empty
	// contentType is sniffed from the first bytes.
	Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Presigner is implemented by stores that can hand out direct download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// NewKey builds "<hashed owner>/<random>_<sanitized name>".
func NewKey(ownerID, fileName string) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(util.HashUserKey(ownerID), randomID()+"_"+sanitized), nil
}

// Sniff returns a reader replaying the full body and the content type to store.
func Sniff(r io.Reader, contentType string) (io.Reader, string, error) {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return r, ct, nil
	}
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, "", fmt.Errorf("read sniff: %w", err)
	}
	return io.MultiReader(bytes.NewReader(sniff[:n]), r), http.DetectContentType(sniff[:n]), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
