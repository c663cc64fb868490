package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// Task type names routed by the worker mux.
const (
	TypeExtractDocument = "document:extract"
	TypePurgeRateLimits = "ratelimit:purge"
)

// ExtractPayload names the document whose text should be extracted.
type ExtractPayload struct {
	DocumentID string `json:"documentId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

var ErrMissingDocumentID = errors.New("missing document id")

// EncodeExtract returns the JSON representation of a payload.
func EncodeExtract(p ExtractPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeExtract parses and validates an extract payload.
func DecodeExtract(raw []byte) (ExtractPayload, error) {
	var p ExtractPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return ExtractPayload{}, err
	}
	if strings.TrimSpace(p.DocumentID) == "" {
		return p, ErrMissingDocumentID
	}
	return p, nil
}
