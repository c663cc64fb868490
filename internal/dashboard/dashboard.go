// Package dashboard serves the headline counters shown on the home screen.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
	"docflow-backend/internal/usage"
)

// Summary is the dashboard payload.
type Summary struct {
	DocsTotal    int `json:"docsTotal"`
	FoldersTotal int `json:"foldersTotal"`
	ActionsMonth int `json:"actionsMonth"`
	TasksToday   int `json:"tasksToday"`
}

// OwnerCounter counts rows for an owner, or all rows for "".
type OwnerCounter interface {
	Count(ctx context.Context, ownerID string) (int, error)
}

// AuditCounter counts audit entries by action.
type AuditCounter interface {
	CountSince(ctx context.Context, action, userID string, since time.Time) (int, error)
}

// TaskCounter counts tasks created since a time.
type TaskCounter interface {
	CountCreatedSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Service computes summaries.
type Service struct {
	Docs    OwnerCounter
	Folders OwnerCounter
	Audit   AuditCounter
	Tasks   TaskCounter
	Now     func() time.Time
}

// GlobalRoles see counters across all users.
var GlobalRoles = []auth.Role{auth.RoleAdmin, auth.RoleSupport}

// Summarize returns counters for the caller, or global ones for GlobalRoles.
func (s *Service) Summarize(ctx context.Context, caller auth.Identity) (Summary, error) {
	owner := caller.Subject
	if auth.RoleAllowed(caller.Role, GlobalRoles...) {
		owner = ""
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out Summary
	var err error
	if out.DocsTotal, err = s.Docs.Count(ctx, owner); err != nil {
		return Summary{}, fmt.Errorf("count documents: %w", err)
	}
	if out.FoldersTotal, err = s.Folders.Count(ctx, owner); err != nil {
		return Summary{}, fmt.Errorf("count folders: %w", err)
	}
	if out.ActionsMonth, err = s.Audit.CountSince(ctx, audit.ActionRunActions, owner, usage.MonthStart(now)); err != nil {
		return Summary{}, fmt.Errorf("count actions: %w", err)
	}
	if out.TasksToday, err = s.Tasks.CountCreatedSince(ctx, owner, dayStart); err != nil {
		return Summary{}, fmt.Errorf("count tasks: %w", err)
	}
	return out, nil
}

// Handler exposes the summary endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches dashboard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/metrics/summary", middleware.RequireRole(auth.ReaderRoles...), h.summary)
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.Svc.Summarize(c.Request.Context(), middleware.IdentityFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute summary", nil)
		return
	}
	respond.OK(c, sum)
}
