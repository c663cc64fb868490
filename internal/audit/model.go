package audit

import (
	"errors"
	"time"
)

// Action names written to the trail.
const (
	ActionUpload         = "upload"
	ActionWebhookOCR     = "webhook_ocr"
	ActionTaskCreate     = "task_create"
	ActionRunActions     = "run_actions"
	ActionChangeUserRole = "change_user_role"
)

// Entry is one append-only audit record.
type Entry struct {
	ID         int64
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
	At         time.Time
}

var ErrInvalidAction = errors.New("audit action is required")
