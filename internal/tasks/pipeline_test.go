package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"docflow-backend/internal/audit"
	"docflow-backend/internal/classifier"
	"docflow-backend/internal/ratelimit"
)

func newPipeline() (*Pipeline, *MemoryRepo, *audit.MemoryRepo, *ratelimit.MemoryCounter) {
	repo := NewMemoryRepo()
	audits := audit.NewMemoryRepo()
	counter := ratelimit.NewMemoryCounter()
	now := time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)
	return &Pipeline{
		Repo:       repo,
		Counter:    counter,
		Audit:      audit.NewService(audits, nil),
		DailyLimit: 3,
		Now:        func() time.Time { return now },
	}, repo, audits, counter
}

func countAction(entries []audit.Entry, action string) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

func TestAdWebhookIsRateLimitedAfterThreeTasks(t *testing.T) {
	p, repo, audits, counter := newPipeline()
	ctx := context.Background()
	ev := Event{Source: "brand.com", ImageID: "img-1", Text: "Limited-time SALE unsubscribe: mailto:stop@brand.com"}

	for i := 0; i < 3; i++ {
		out, err := p.Process(ctx, "u1", ev)
		require.NoError(t, err)
		require.False(t, out.RateLimited)
		require.NotNil(t, out.Task)
		require.Equal(t, ChannelEmail, out.Task.Channel)
		require.Equal(t, "stop@brand.com", *out.Task.Target)
		require.Equal(t, StatusPending, out.Task.Status)
		require.Equal(t, 2-i, out.Remaining)
	}

	out, err := p.Process(ctx, "u1", ev)
	require.NoError(t, err)
	require.True(t, out.RateLimited)
	require.Nil(t, out.Task)

	n, err := repo.CountCreatedSince(ctx, "u1", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, counter.Count("u1:brand.com:2024-07-04"))

	entries := audits.All()
	require.Equal(t, 4, countAction(entries, audit.ActionWebhookOCR))
	require.Equal(t, 3, countAction(entries, audit.ActionTaskCreate))
}

func TestNonAdWebhookCreatesNoTask(t *testing.T) {
	p, repo, audits, _ := newPipeline()
	ctx := context.Background()

	out, err := p.Process(ctx, "u1", Event{Source: "bank", ImageID: "i", Text: "Invoice: amount due. Big SALE!"})
	require.NoError(t, err)
	require.Equal(t, classifier.Official, out.Classification)
	require.Nil(t, out.Task)

	n, _ := repo.CountCreatedSince(ctx, "", time.Time{})
	require.Zero(t, n)
	require.Len(t, audits.All(), 1)
}

func TestAdWithoutEmailUsesWebChannel(t *testing.T) {
	p, _, _, _ := newPipeline()
	out, err := p.Process(context.Background(), "u1", Event{ImageID: "img-9", Text: "Buy now! Opt out at https://brand.example/stop"})
	require.NoError(t, err)
	require.NotNil(t, out.Task)
	require.Equal(t, ChannelWeb, out.Task.Channel)
	require.Equal(t, "https://brand.example/stop", *out.Task.Target)
}

func TestConcurrentAdWebhooksNeverPassLimit(t *testing.T) {
	p, repo, _, _ := newPipeline()
	ctx := context.Background()
	ev := Event{Source: "brand.com", Text: "promo code inside"}

	const workers = 32
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Process(ctx, "u1", ev)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := repo.CountCreatedSince(ctx, "u1", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestPGRepoCountCreatedSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	since := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM tasks").
		WithArgs(since, "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := (&PGRepo{DB: db}).CountCreatedSince(context.Background(), "", since)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoCreateWritesNullTarget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	task := Task{ID: "t1", UserID: "u1", Sender: "s", Status: StatusPending, Channel: ChannelWeb, CreatedAt: time.Now().UTC()}
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs("t1", "u1", "s", StatusPending, ChannelWeb, nil, []byte("{}"), task.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, (&PGRepo{DB: db}).Create(context.Background(), task))
	require.NoError(t, mock.ExpectationsWereMet())
}
