package ratelimit

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyUsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	at := time.Date(2024, 3, 2, 5, 0, 0, 0, loc) // 2024-03-01 20:00 UTC
	require.Equal(t, "u1:brand.com:2024-03-01", Key("u1", " brand.com ", at))
}

func TestMemoryCounterStopsAtCeiling(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	wantRemaining := []int{2, 1, 0}
	for i, want := range wantRemaining {
		res, err := c.IncrementIfUnderLimit(ctx, "k", 3)
		require.NoError(t, err)
		require.True(t, res.Accepted, "call %d", i+1)
		require.Equal(t, want, res.Remaining)
	}

	res, err := c.IncrementIfUnderLimit(ctx, "k", 3)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, 0, res.Remaining)
	require.Equal(t, 3, c.Count("k"))
}

func TestMemoryCounterConcurrentCallers(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.IncrementIfUnderLimit(ctx, "u:s:2024-01-01", 3)
			if err == nil && res.Accepted {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(3), accepted.Load())
	require.LessOrEqual(t, c.Count("u:s:2024-01-01"), 3)
}

func TestMemoryCounterPurge(t *testing.T) {
	c := NewMemoryCounter()
	c.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	_, _ = c.IncrementIfUnderLimit(context.Background(), "old", 3)
	c.Now = func() time.Time { return time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) }
	_, _ = c.IncrementIfUnderLimit(context.Background(), "new", 3)

	n, err := c.Purge(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, 0, c.Count("old"))
	require.Equal(t, 1, c.Count("new"))
}

func TestPGCounterAccepts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := &PGCounter{DB: db, Now: func() time.Time { return now }}

	mock.ExpectQuery("INSERT INTO rate_limits").
		WithArgs("k", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	res, err := c.IncrementIfUnderLimit(context.Background(), "k", 3)
	require.NoError(t, err)
	require.Equal(t, Result{Accepted: true, Count: 2, Remaining: 1}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCounterRollsBackOvershoot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := &PGCounter{DB: db}

	mock.ExpectQuery("INSERT INTO rate_limits").
		WithArgs("k", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec("UPDATE rate_limits SET count = count - 1").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := c.IncrementIfUnderLimit(context.Background(), "k", 3)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, 0, res.Remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGCounterPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM rate_limits").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := (&PGCounter{DB: db}).Purge(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	key := "test:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(ctx, key) })

	c := NewRedisCounter(client)
	for i := 0; i < 3; i++ {
		res, err := c.IncrementIfUnderLimit(ctx, key, 3)
		require.NoError(t, err)
		require.True(t, res.Accepted)
	}
	res, err := c.IncrementIfUnderLimit(ctx, key, 3)
	require.NoError(t, err)
	require.False(t, res.Accepted)

	stored, err := client.Get(ctx, key).Int()
	require.NoError(t, err)
	require.Equal(t, 3, stored)
}
