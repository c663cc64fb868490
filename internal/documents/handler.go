package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/queue"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
	"docflow-backend/internal/tags"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document and folder routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	writers := middleware.RequireRole(auth.WriterRoles...)
	readers := middleware.RequireRole(auth.ReaderRoles...)

	rg.POST("/docs", writers, h.upload)
	rg.GET("/docs/:id", readers, h.get)
	rg.GET("/docs/:id/download", readers, h.download)
	rg.GET("/folders", readers, h.folders)
	rg.GET("/folders/:tag/docs", readers, h.folderDocs)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	primary := c.Query("primaryTag")
	if primary == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "primaryTag is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	// Browsers and curl send octet-stream for unknown files; sniff those instead.
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	ctx := queue.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	res, err := h.Svc.Upload(ctx, UploadInput{
		OwnerID:       userID,
		FileName:      fileHeader.Filename,
		ContentType:   contentType,
		Body:          file,
		PrimaryTag:    primary,
		SecondaryTags: tags.SplitNames(c.Query("secondaryTags")),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, tags.ErrInvalidName):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	c.Set("documentId", res.Document.ID)
	respond.JSON(c, http.StatusCreated, toUploadResponse(res))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	doc, err := h.Svc.Get(c.Request.Context(), id, middleware.IdentityFromContext(c))
	if err != nil {
		h.readError(c, err)
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)

	doc, body, err := h.Svc.Open(c.Request.Context(), id, middleware.IdentityFromContext(c))
	if err != nil {
		h.readError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", doc.Mime)
	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	if doc.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

func (h *Handler) readError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "forbidden", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
	}
}

func (h *Handler) folders(c *gin.Context) {
	folders, err := h.Svc.Folders(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list folders", nil)
		return
	}
	if folders == nil {
		folders = []tags.Folder{}
	}
	respond.OK(c, folders)
}

func (h *Handler) folderDocs(c *gin.Context) {
	docs, err := h.Svc.FolderDocuments(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("tag"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list folder documents", nil)
		return
	}
	respond.OK(c, toListResponse(docs))
}
