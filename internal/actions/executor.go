package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/documents"
	"docflow-backend/internal/llm"
	"docflow-backend/internal/scope"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/storage/object"
	"docflow-backend/internal/shared/telemetry"
	"docflow-backend/internal/usage"
)

// DefaultSnippetChars bounds how much of each document's text reaches the prompt.
const DefaultSnippetChars = 1200

const downloadTTL = 15 * time.Minute

// Charger records the fixed cost of an attempt.
type Charger interface {
	Charge(ctx context.Context, userID string) (usage.Record, error)
}

// ScopeResolver maps a scope to documents.
type ScopeResolver interface {
	Resolve(ctx context.Context, ownerID string, sc scope.Scope) (scope.Resolution, error)
}

// DocumentWriter persists generated content.
type DocumentWriter interface {
	CreateGenerated(ctx context.Context, ownerID, fileName, mime, content string) (documents.Document, error)
}

// TagLinker adds a non-primary link from a document to a tag.
type TagLinker interface {
	LinkSecondary(ctx context.Context, documentID, tagID string) error
}

// Auditor appends audit entries.
type Auditor interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) error
}

// Executor charges, resolves, generates, persists, links and audits one run.
// The steps are not transactional; a failure part way leaves earlier writes.
type Executor struct {
	Usage     Charger
	Scopes    ScopeResolver
	Docs      DocumentWriter
	Tags      TagLinker
	Audit     Auditor
	Generator llm.Generator
	// Presigner is optional; without it downloads point at the API route.
	Presigner    object.Presigner
	SnippetChars int
	Timeout      time.Duration
}

// Run executes req. Usage is charged before scope resolution and is kept
// when resolution fails. Generation failures become placeholder outputs.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	charge, err := e.Usage.Charge(ctx, req.OwnerID)
	if err != nil {
		return Result{}, err
	}

	res, err := e.Scopes.Resolve(ctx, req.OwnerID, req.Scope)
	if err != nil {
		return Result{}, err
	}

	prompt := BuildPrompt(userMessage(req.Messages), res.Documents, e.snippetChars())
	requested := requestedSet(req.Actions)
	name := scopeSlug(req.Scope)

	result := Result{
		Message:     "Actions executed successfully",
		NewDocs:     []string{},
		Downloads:   map[string]string{},
		CreditsUsed: charge.Credits,
	}
	for _, out := range Outputs {
		if _, ok := requested[out.Action]; !ok {
			continue
		}
		content := e.generate(ctx, req.OwnerID, out.Action, prompt+out.PromptSuffix)
		if strings.TrimSpace(content) == "" {
			continue
		}

		fileName := fmt.Sprintf("%s_%s.%s", out.FilePrefix, name, out.Extension)
		doc, err := e.Docs.CreateGenerated(ctx, req.OwnerID, fileName, out.Mime, content)
		if err != nil {
			return Result{}, fmt.Errorf("persist %s output: %w", out.Action, err)
		}
		// Only tag scopes tag their outputs; folder runs leave them unfiled.
		if req.Scope.Type == scope.TypeTag && res.Tag != nil {
			if err := e.Tags.LinkSecondary(ctx, doc.ID, res.Tag.ID); err != nil {
				return Result{}, fmt.Errorf("link %s output: %w", out.Action, err)
			}
		}
		result.NewDocs = append(result.NewDocs, doc.ID)
		result.Downloads[doc.ID] = e.downloadURL(ctx, doc)
	}

	if err := e.Audit.Record(ctx, req.OwnerID, audit.ActionRunActions, "scope", req.Scope.Name, map[string]any{
		"scope":   req.Scope,
		"actions": req.Actions,
		"newDocs": result.NewDocs,
	}); err != nil {
		return Result{}, fmt.Errorf("audit run: %w", err)
	}
	metrics.IncActionsRun()
	return result, nil
}

func (e *Executor) generate(ctx context.Context, ownerID, mode, prompt string) string {
	genCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	out, err := e.Generator.Generate(genCtx, prompt)
	if err == nil && strings.TrimSpace(out) != "" {
		return strings.TrimSpace(out)
	}
	if err == nil {
		return fmt.Sprintf("[No output generated for %s]", mode)
	}

	metrics.IncGenerationFailures(mode)
	fields := map[string]any{
		"user_id": ownerID,
		"mode":    mode,
		"error":   err,
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		fields["timeout"] = true
	}
	telemetry.Warn("actions.generation_failed", fields)
	return fmt.Sprintf("[Generation failed for %s: %v]", mode, err)
}

func (e *Executor) downloadURL(ctx context.Context, doc documents.Document) string {
	if e.Presigner != nil {
		url, err := e.Presigner.PresignGet(ctx, doc.BlobKey, downloadTTL)
		if err == nil {
			return url
		}
		telemetry.Warn("actions.presign_failed", map[string]any{"document_id": doc.ID, "error": err})
	}
	return "/api/v1/docs/" + doc.ID + "/download"
}

func (e *Executor) snippetChars() int {
	if e.SnippetChars > 0 {
		return e.SnippetChars
	}
	return DefaultSnippetChars
}

// BuildPrompt joins the user message with a bounded text prefix of every
// document, labeled by filename. Truncation is silent.
func BuildPrompt(message string, docs []documents.Document, snippetChars int) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("File: %s\n%s", d.FileName, truncate(strings.TrimSpace(d.Text()), snippetChars)))
	}
	return fmt.Sprintf("%s\n\nHere are the OCR-extracted texts from %d documents:\n%s\n\nGenerate insights, summaries, or CSV data as requested.",
		message, len(docs), strings.Join(parts, "\n\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func userMessage(msgs []Message) string {
	if len(msgs) == 0 || strings.TrimSpace(msgs[0].Content) == "" {
		return DefaultUserMessage
	}
	return strings.TrimSpace(msgs[0].Content)
}

func requestedSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[strings.TrimSpace(n)] = struct{}{}
	}
	return out
}

func scopeSlug(sc scope.Scope) string {
	if s := slug.Make(sc.Name); s != "" {
		return s
	}
	return "scope"
}
