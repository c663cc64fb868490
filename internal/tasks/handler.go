package tasks

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

// Handler exposes the OCR webhook.
type Handler struct {
	Pipeline *Pipeline
}

// NewHandler constructs a Handler.
func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

// RegisterRoutes attaches webhook routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/ocr", middleware.RequireRole(auth.WriterRoles...), h.ocr)
}

// Rate limiting is a business outcome, so every processed event answers 200.
func (h *Handler) ocr(c *gin.Context) {
	var ev Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	out, err := h.Pipeline.Process(c.Request.Context(), middleware.UserIDFromContext(c), ev)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process webhook", nil)
		}
		return
	}

	switch {
	case out.RateLimited:
		respond.OK(c, gin.H{"status": "rate_limited"})
	case out.Task != nil:
		c.Set("taskId", out.Task.ID)
		respond.OK(c, gin.H{
			"taskId":         out.Task.ID,
			"classification": out.Classification,
			"channel":        out.Task.Channel,
			"target":         out.Task.Target,
			"remaining":      out.Remaining,
		})
	default:
		respond.OK(c, gin.H{"classification": out.Classification})
	}
}
