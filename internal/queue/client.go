// Package queue enqueues background jobs on asynq.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const extractMaxRetry = 5

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client sends jobs to the asynq backend.
type Client struct {
	enq   enqueuer
	close func() error
	Now   func() time.Time
}

// NewClient connects to Redis at addr.
func NewClient(addr string) *Client {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr})
	return &Client{enq: c, close: c.Close, Now: time.Now}
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// EnqueueExtract schedules text extraction for documentID.
func (c *Client) EnqueueExtract(ctx context.Context, documentID string) error {
	raw, err := EncodeExtract(ExtractPayload{
		DocumentID: documentID,
		RequestID:  requestIDFromContext(ctx),
		EnqueuedAt: c.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeExtractDocument, raw)
	if _, err := c.enq.EnqueueContext(ctx, task, asynq.MaxRetry(extractMaxRetry)); err != nil {
		return fmt.Errorf("enqueue extract task: %w", err)
	}
	return nil
}

// NewPurgeTask builds the periodic rate bucket purge task.
func NewPurgeTask() *asynq.Task {
	return asynq.NewTask(TypePurgeRateLimits, nil)
}

type requestIDKey struct{}

// WithRequestID tags jobs enqueued under ctx with the HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
