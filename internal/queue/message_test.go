package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, f.err
}

func TestDecodeExtractRequiresDocumentID(t *testing.T) {
	if _, err := DecodeExtract([]byte(`{"version":1}`)); !errors.Is(err, ErrMissingDocumentID) {
		t.Fatalf("expected ErrMissingDocumentID, got %v", err)
	}
	if _, err := DecodeExtract([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEnqueueExtractBuildsTask(t *testing.T) {
	fake := &fakeEnqueuer{}
	c := &Client{enq: fake, Now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }}

	ctx := WithRequestID(context.Background(), "req-1")
	if err := c.EnqueueExtract(ctx, "doc-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(fake.tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(fake.tasks))
	}
	task := fake.tasks[0]
	if task.Type() != TypeExtractDocument {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	p, err := DecodeExtract(task.Payload())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.DocumentID != "doc-1" || p.RequestID != "req-1" || p.EnqueuedAt != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestEnqueueExtractWrapsError(t *testing.T) {
	c := &Client{enq: &fakeEnqueuer{err: errors.New("redis down")}, Now: time.Now}
	if err := c.EnqueueExtract(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
}
