package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/classifier"
	"docflow-backend/internal/ratelimit"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/telemetry"
)

// DefaultDailyLimit is the number of ad tasks allowed per user, source and day.
const DefaultDailyLimit = 3

// Event is one inbound OCR webhook.
type Event struct {
	Source  string         `json:"source"`
	ImageID string         `json:"imageId"`
	Text    string         `json:"text"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Outcome is the terminal state reached for an event.
type Outcome struct {
	Classification classifier.Classification
	RateLimited    bool
	Task           *Task
	Remaining      int
}

// Auditor appends audit entries.
type Auditor interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) error
}

// Pipeline classifies events and creates rate-limited tasks for ads.
type Pipeline struct {
	Repo       Repo
	Counter    ratelimit.Counter
	Audit      Auditor
	DailyLimit int
	Now        func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Pipeline) limit() int {
	if p.DailyLimit > 0 {
		return p.DailyLimit
	}
	return DefaultDailyLimit
}

// Process runs one event through classification, the rate counter and task
// creation. The classification is always audited; a second entry is written
// only when a task is created.
func (p *Pipeline) Process(ctx context.Context, userID string, ev Event) (Outcome, error) {
	if strings.TrimSpace(userID) == "" {
		return Outcome{}, ErrInvalidInput
	}
	cls := classifier.Classify(ev.Text)
	metrics.IncWebhookCalls(string(cls))

	if err := p.Audit.Record(ctx, userID, audit.ActionWebhookOCR, "webhook", ev.ImageID, map[string]any{
		"classification": string(cls),
		"source":         ev.Source,
	}); err != nil {
		return Outcome{}, fmt.Errorf("audit webhook: %w", err)
	}
	if cls != classifier.Ad {
		return Outcome{Classification: cls}, nil
	}

	now := p.now()
	source := bucketSource(ev)
	res, err := p.Counter.IncrementIfUnderLimit(ctx, ratelimit.Key(userID, source, now), p.limit())
	if err != nil {
		return Outcome{}, err
	}
	if !res.Accepted {
		metrics.IncTaskRateLimited()
		telemetry.Info("tasks.rate_limited", map[string]any{
			"user_id": userID,
			"source":  source,
			"limit":   p.limit(),
		})
		return Outcome{Classification: cls, RateLimited: true}, nil
	}

	task := Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Sender:    ev.Source,
		Status:    StatusPending,
		Channel:   ChannelWeb,
		Payload:   payloadOf(ev),
		CreatedAt: now,
	}
	if unsub, ok := classifier.ExtractUnsubscribe(ev.Text); ok {
		target := unsub.Value
		task.Target = &target
		if unsub.Type == classifier.TargetEmail {
			task.Channel = ChannelEmail
		}
	}
	if err := p.Repo.Create(ctx, task); err != nil {
		return Outcome{}, fmt.Errorf("create task: %w", err)
	}
	if err := p.Audit.Record(ctx, userID, audit.ActionTaskCreate, "task", task.ID, map[string]any{
		"channel": task.Channel,
	}); err != nil {
		return Outcome{}, fmt.Errorf("audit task: %w", err)
	}
	metrics.IncTasksCreated()
	return Outcome{Classification: cls, Task: &task, Remaining: res.Remaining}, nil
}

// bucketSource falls back to the image id so events without a source still
// get their own bucket.
func bucketSource(ev Event) string {
	if s := strings.TrimSpace(ev.Source); s != "" {
		return s
	}
	return strings.TrimSpace(ev.ImageID)
}

func payloadOf(ev Event) map[string]any {
	p := map[string]any{
		"source":  ev.Source,
		"imageId": ev.ImageID,
		"text":    ev.Text,
	}
	if len(ev.Meta) > 0 {
		p["meta"] = ev.Meta
	}
	return p
}
