// Package workerproc holds the asynq handlers run by cmd/worker.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docflow-backend/internal/documents"
	"docflow-backend/internal/queue"
	"docflow-backend/internal/ratelimit"
	"docflow-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging undecodable payloads.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// Extractor stores a document's text.
type Extractor interface {
	ExtractText(ctx context.Context, documentID string) (string, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	Docs Extractor
	// Purger is optional; backends that expire keys themselves leave it nil.
	Purger ratelimit.Purger
	Now    func() time.Time
}

// Handler registers every job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeExtractDocument, p.handleExtract)
	mux.HandleFunc(queue.TypePurgeRateLimits, p.handlePurge)
	return mux
}

// Malformed payloads and missing documents are not retried.
func (p *Processor) handleExtract(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.DecodeExtract(task.Payload())
	if err != nil {
		meta := ComputeMeta(task.Payload())
		telemetry.Error("worker.extract.decode_failed", map[string]any{
			"body_len":    meta.BodyLen,
			"body_sha256": meta.BodySHA,
			"error":       err,
		})
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	fields := map[string]any{
		"document_id": payload.DocumentID,
		"request_id":  payload.RequestID,
	}
	telemetry.Info("worker.extract.received", fields)

	text, err := p.Docs.ExtractText(ctx, payload.DocumentID)
	if err != nil {
		fields["error"] = err
		telemetry.Error("worker.extract.failed", fields)
		if errors.Is(err, documents.ErrNotFound) {
			return fmt.Errorf("extract %s: %v: %w", payload.DocumentID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("extract %s: %w", payload.DocumentID, err)
	}
	fields["text_len"] = len(text)
	telemetry.Info("worker.extract.completed", fields)
	return nil
}

func (p *Processor) handlePurge(ctx context.Context, _ *asynq.Task) error {
	if p.Purger == nil {
		return nil
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	n, err := p.Purger.Purge(ctx, now.Add(-ratelimit.BucketTTL))
	if err != nil {
		telemetry.Error("worker.purge.failed", map[string]any{"error": err})
		return fmt.Errorf("purge rate buckets: %w", err)
	}
	telemetry.Info("worker.purge.completed", map[string]any{"deleted": n})
	return nil
}
