package actions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/scope"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

// Handler exposes the run endpoint.
type Handler struct {
	Exec *Executor
}

// NewHandler constructs a Handler.
func NewHandler(exec *Executor) *Handler {
	return &Handler{Exec: exec}
}

// RegisterRoutes attaches action routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/run", middleware.RequireRole(auth.WriterRoles...), h.run)
}

type runRequest struct {
	Scope    scope.Scope `json:"scope"`
	Messages []Message   `json:"messages"`
	Actions  []string    `json:"actions"`
}

func (h *Handler) run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	res, err := h.Exec.Run(c.Request.Context(), Request{
		OwnerID:  middleware.UserIDFromContext(c),
		Scope:    req.Scope,
		Messages: req.Messages,
		Actions:  req.Actions,
	})
	if err != nil {
		switch {
		case errors.Is(err, scope.ErrInvalidScope):
			respond.Error(c, http.StatusBadRequest, "invalid_scope", err.Error(), nil)
		case errors.Is(err, scope.ErrTagNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Tag not found", nil)
		case errors.Is(err, scope.ErrEmptyScope):
			respond.Error(c, http.StatusNotFound, "not_found", "No documents found for the given scope", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run actions", nil)
		}
		return
	}
	respond.OK(c, res)
}
