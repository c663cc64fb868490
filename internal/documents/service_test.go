package documents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/shared/auth"
	"docflow-backend/internal/shared/storage/object/local"
	"docflow-backend/internal/tags"
)

type fakeQueue struct {
	ids []string
	err error
}

func (q *fakeQueue) EnqueueExtract(_ context.Context, id string) error {
	q.ids = append(q.ids, id)
	return q.err
}

type fixture struct {
	svc    *Service
	tags   *tags.MemoryRepo
	audits *audit.MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tagRepo := tags.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	svc := &Service{
		Store: local.New(t.TempDir()),
		Repo:  NewMemoryRepo(),
		Tags:  tags.NewService(tagRepo),
		Audit: audit.NewService(auditRepo, nil),
		Now:   func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
	return fixture{svc: svc, tags: tagRepo, audits: auditRepo}
}

func TestUploadLinksTagsAuditsAndExtractsInline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, UploadInput{
		OwnerID:       "u1",
		FileName:      "invoice.txt",
		Body:          strings.NewReader("Invoice 42, amount due Friday"),
		PrimaryTag:    "bills",
		SecondaryTags: []string{"2024", "bills"},
	})
	require.NoError(t, err)
	require.Equal(t, "bills", res.Folder.Name)
	require.Len(t, res.Tags, 1)
	require.Equal(t, "Invoice 42, amount due Friday", res.Document.Text())

	primaries := 0
	for _, l := range f.tags.Links() {
		if l.DocumentID == res.Document.ID && l.IsPrimary {
			primaries++
		}
	}
	require.Equal(t, 1, primaries)

	entries := f.audits.All()
	require.Len(t, entries, 1)
	require.Equal(t, audit.ActionUpload, entries[0].Action)
	require.Equal(t, "invoice.txt", entries[0].Metadata["filename"])

	stored, err := f.svc.Repo.GetByID(ctx, res.Document.ID)
	require.NoError(t, err)
	require.Equal(t, "Invoice 42, amount due Friday", stored.Text())
}

func TestUploadRequiresPrimaryTag(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), UploadInput{
		OwnerID:  "u1",
		FileName: "a.txt",
		Body:     strings.NewReader("x"),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUploadEnqueuesWhenQueueConfigured(t *testing.T) {
	f := newFixture(t)
	q := &fakeQueue{}
	f.svc.Queue = q

	res, err := f.svc.Upload(context.Background(), UploadInput{
		OwnerID:    "u1",
		FileName:   "a.txt",
		Body:       strings.NewReader("hello"),
		PrimaryTag: "inbox",
	})
	require.NoError(t, err)
	require.Equal(t, []string{res.Document.ID}, q.ids)
	require.Nil(t, res.Document.ExtractedText)
}

func TestUploadExtractsInlineWhenEnqueueFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := &fakeQueue{err: errors.New("redis down")}
	f.svc.Queue = q

	res, err := f.svc.Upload(ctx, UploadInput{
		OwnerID:    "u1",
		FileName:   "a.txt",
		Body:       strings.NewReader("hello"),
		PrimaryTag: "inbox",
	})
	require.NoError(t, err)
	require.Equal(t, []string{res.Document.ID}, q.ids)
	require.Equal(t, "hello", res.Document.Text())

	stored, err := f.svc.Repo.GetByID(ctx, res.Document.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExtractedText)
	require.Equal(t, "hello", *stored.ExtractedText)
}

func TestUploadFileNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, UploadInput{
		OwnerID:    "u1",
		FileName:   "report..final.txt",
		Body:       strings.NewReader("numbers"),
		PrimaryTag: "inbox",
	})
	require.NoError(t, err)
	require.Equal(t, "report..final.txt", res.Document.FileName)

	for _, name := range []string{"../secret.txt", "a\\..\\b.txt", ".."} {
		_, err := f.svc.Upload(ctx, UploadInput{
			OwnerID:    "u1",
			FileName:   name,
			Body:       strings.NewReader("x"),
			PrimaryTag: "inbox",
		})
		require.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestExtractTextSetsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Queue = &fakeQueue{}

	res, err := f.svc.Upload(ctx, UploadInput{
		OwnerID:    "u1",
		FileName:   "a.txt",
		Body:       strings.NewReader("first"),
		PrimaryTag: "inbox",
	})
	require.NoError(t, err)

	text, err := f.svc.ExtractText(ctx, res.Document.ID)
	require.NoError(t, err)
	require.Equal(t, "first", text)

	changed, err := f.svc.Repo.SetExtractedText(ctx, res.Document.ID, "second")
	require.NoError(t, err)
	require.False(t, changed)

	text, err = f.svc.ExtractText(ctx, res.Document.ID)
	require.NoError(t, err)
	require.Equal(t, "first", text)
}

func TestExtractTextSkipsUnsupportedMime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Queue = &fakeQueue{}

	res, err := f.svc.Upload(ctx, UploadInput{
		OwnerID:     "u1",
		FileName:    "scan.png",
		ContentType: "image/png",
		Body:        strings.NewReader("\x89PNG"),
		PrimaryTag:  "inbox",
	})
	require.NoError(t, err)

	text, err := f.svc.ExtractText(ctx, res.Document.ID)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestGetEnforcesOwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.CreateGenerated(ctx, "owner", "summary_q3.txt", "text/plain", "hi")
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, doc.ID, auth.Identity{Subject: "owner", Role: auth.RoleUser})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, doc.ID, auth.Identity{Subject: "admin-1", Role: auth.RoleAdmin})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, doc.ID, auth.Identity{Subject: "other", Role: auth.RoleSupport})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, "not-a-uuid", auth.Identity{Subject: "owner", Role: auth.RoleUser})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFolderDocumentsUsesPrimaryLinksOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inFolder, err := f.svc.Upload(ctx, UploadInput{OwnerID: "u1", FileName: "a.txt", Body: strings.NewReader("a"), PrimaryTag: "q3"})
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, UploadInput{OwnerID: "u1", FileName: "b.txt", Body: strings.NewReader("b"), PrimaryTag: "misc", SecondaryTags: []string{"q3"}})
	require.NoError(t, err)

	docs, err := f.svc.FolderDocuments(ctx, "u1", "q3")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, inFolder.Document.ID, docs[0].ID)

	docs, err = f.svc.FolderDocuments(ctx, "u1", "missing")
	require.NoError(t, err)
	require.Empty(t, docs)

	folders, err := f.svc.Folders(ctx, "u1")
	require.NoError(t, err)
	counts := map[string]int{}
	for _, fo := range folders {
		counts[fo.Name] = fo.Count
	}
	require.Equal(t, 2, counts["q3"])
	require.Equal(t, 1, counts["misc"])
}

func TestCreateGeneratedHasNoFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, UploadInput{OwnerID: "u1", FileName: "a.txt", Body: strings.NewReader("a"), PrimaryTag: "q3"})
	require.NoError(t, err)
	doc, err := f.svc.CreateGenerated(ctx, "u1", "summary_q3.txt", "text/plain", "generated")
	require.NoError(t, err)
	require.Equal(t, "generated", doc.Text())

	for _, l := range f.tags.Links() {
		require.NotEqual(t, doc.ID, l.DocumentID)
	}
	docs, err := f.svc.FolderDocuments(ctx, "u1", "q3")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NotEqual(t, doc.ID, docs[0].ID)

	total, err := f.svc.Count(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, total)
}
