// Package audit is the append-only trail written by every state-changing operation.
package audit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service writes audit entries.
type Service struct {
	Repo Repo
	Log  *zap.Logger
	Now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Repo: repo, Log: log.Named("audit"), Now: time.Now}
}

// Record appends one entry. The error is returned to the caller, which
// treats it as a persistence failure.
func (s *Service) Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		entityType = "unknown"
	}

	entry := Entry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		At:         s.Now().UTC(),
	}
	if err := s.Repo.Insert(ctx, entry); err != nil {
		s.Log.Warn("failed to write audit log", zap.String("action", action), zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// CountSince counts entries for action since the given time.
func (s *Service) CountSince(ctx context.Context, action, userID string, since time.Time) (int, error) {
	return s.Repo.CountSince(ctx, action, userID, since)
}
