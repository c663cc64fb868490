// Package tasks turns classified OCR webhooks into follow-up tasks.
package tasks

import (
	"errors"
	"time"
)

// Status values. Only pending is written here; workers move tasks on.
const (
	StatusPending = "pending"
)

// Channels a task is carried out over.
const (
	ChannelEmail = "email"
	ChannelWeb   = "web"
)

// Task is an unsubscribe follow-up created for an ad.
type Task struct {
	ID        string
	UserID    string
	Sender    string
	Status    string
	Channel   string
	Target    *string
	Payload   map[string]any
	CreatedAt time.Time
}

var (
	ErrNotFound     = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid webhook payload")
)
