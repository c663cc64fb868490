package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/extract"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/storage/object"
	"docflow-backend/internal/shared/telemetry"
	"docflow-backend/internal/shared/util"
	"docflow-backend/internal/tags"
)

// ExtractQueue hands text extraction to a background worker.
type ExtractQueue interface {
	EnqueueExtract(ctx context.Context, documentID string) error
}

// Service contains business logic for documents and folders.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Tags  *tags.Service
	Audit *audit.Service
	// Queue is optional; without it extraction runs inline after upload.
	Queue ExtractQueue
	Now   func() time.Time
}

// UploadInput is one multipart upload.
type UploadInput struct {
	OwnerID       string
	FileName      string
	ContentType   string
	Body          io.Reader
	PrimaryTag    string
	SecondaryTags []string
}

// UploadResult is the stored document plus the tags it was linked to.
type UploadResult struct {
	Document Document
	Folder   tags.Tag
	Tags     []tags.Tag
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload stores the blob, records the document, links its tags and audits
// the upload. Extraction is queued, or run inline when no queue is set.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.PrimaryTag = strings.TrimSpace(in.PrimaryTag)
	if in.OwnerID == "" || in.FileName == "" || in.Body == nil {
		return UploadResult{}, ErrInvalidInput
	}
	if in.PrimaryTag == "" {
		return UploadResult{}, fmt.Errorf("%w: primaryTag is required", ErrInvalidInput)
	}
	if _, err := util.SanitizeFileName(in.FileName); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	obj, err := s.Store.Put(ctx, in.OwnerID, in.FileName, in.ContentType, in.Body)
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return UploadResult{}, fmt.Errorf("store blob: %w", err)
	}

	doc := Document{
		ID:        uuid.NewString(),
		OwnerID:   in.OwnerID,
		FileName:  in.FileName,
		Mime:      obj.ContentType,
		BlobKey:   obj.Key,
		SizeBytes: obj.Size,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return UploadResult{}, fmt.Errorf("create document: %w", err)
	}

	folder, secondaries, err := s.Tags.Attach(ctx, in.OwnerID, doc.ID, in.PrimaryTag, in.SecondaryTags)
	if err != nil {
		return UploadResult{}, err
	}

	if err := s.Audit.Record(ctx, in.OwnerID, audit.ActionUpload, "document", doc.ID, map[string]any{
		"filename": doc.FileName,
	}); err != nil {
		return UploadResult{}, fmt.Errorf("audit upload: %w", err)
	}
	metrics.IncUploads()

	s.startExtraction(ctx, &doc)

	return UploadResult{Document: doc, Folder: folder, Tags: secondaries}, nil
}

// startExtraction never fails the upload: a document without text is still
// a valid document. A failed enqueue falls back to inline extraction.
func (s *Service) startExtraction(ctx context.Context, doc *Document) {
	if s.Queue != nil {
		err := s.Queue.EnqueueExtract(ctx, doc.ID)
		if err == nil {
			return
		}
		telemetry.Warn("documents.extract_enqueue_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err,
		})
	}
	text, err := s.ExtractText(ctx, doc.ID)
	if err != nil {
		telemetry.Warn("documents.extract_failed", map[string]any{
			"document_id": doc.ID,
			"error":       err,
		})
		return
	}
	if text != "" {
		doc.ExtractedText = &text
	}
}

// ExtractText reads the document's blob and stores its text once. Unsupported
// mime types are skipped and return "".
func (s *Service) ExtractText(ctx context.Context, id string) (string, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.ExtractedText != nil {
		return *doc.ExtractedText, nil
	}
	metrics.IncOCRRequests()

	text, err := extract.ExtractText(ctx, s.Store, doc.BlobKey, doc.Mime, doc.FileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			telemetry.Info("documents.extract_skipped", map[string]any{
				"document_id": doc.ID,
				"mime":        doc.Mime,
			})
			return "", nil
		}
		return "", err
	}
	if _, err := s.Repo.SetExtractedText(ctx, doc.ID, text); err != nil {
		return "", fmt.Errorf("save extracted text: %w", err)
	}
	return text, nil
}

// CreateGenerated persists generated content as a new document whose text
// is the content itself. It links no tags: generated documents sit in no
// folder, and callers add a secondary link when a tag scope produced them.
func (s *Service) CreateGenerated(ctx context.Context, ownerID, fileName, mime, content string) (Document, error) {
	if ownerID == "" || strings.TrimSpace(fileName) == "" {
		return Document{}, ErrInvalidInput
	}
	obj, err := s.Store.Put(ctx, ownerID, fileName, mime, strings.NewReader(content))
	if err != nil {
		return Document{}, fmt.Errorf("store generated blob: %w", err)
	}
	text := content
	doc := Document{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		FileName:      fileName,
		Mime:          obj.ContentType,
		BlobKey:       obj.Key,
		SizeBytes:     obj.Size,
		ExtractedText: &text,
		CreatedAt:     s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create generated document: %w", err)
	}
	return doc, nil
}

// Get returns a document readable by the caller: its owner or an admin.
func (s *Service) Get(ctx context.Context, id string, caller auth.Identity) (Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Document{}, ErrNotFound
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != caller.Subject && caller.Role != auth.RoleAdmin {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// Open returns the blob of a document readable by the caller.
func (s *Service) Open(ctx context.Context, id string, caller auth.Identity) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id, caller)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.BlobKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open blob: %w", err)
	}
	return doc, rc, nil
}

// ListByIDs returns the existing documents among ids. Malformed ids are
// dropped before they reach the store.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Document, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return s.Repo.ListByIDs(ctx, valid)
}

// Count counts documents for ownerID, or all when ownerID is empty.
func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	return s.Repo.Count(ctx, ownerID)
}

// Folders lists the owner's tags with their association counts.
func (s *Service) Folders(ctx context.Context, ownerID string) ([]tags.Folder, error) {
	return s.Tags.Folders(ctx, ownerID)
}

// FolderDocuments lists documents whose folder is the named tag. A missing
// tag yields an empty list.
func (s *Service) FolderDocuments(ctx context.Context, ownerID, name string) ([]Document, error) {
	tag, err := s.Tags.Lookup(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return []Document{}, nil
		}
		return nil, err
	}
	ids, err := s.Tags.DocumentIDs(ctx, tag, true)
	if err != nil {
		return nil, err
	}
	return s.ListByIDs(ctx, ids)
}
