package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestCheck(t *testing.T) {
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		db   Pinger
		want string
	}{
		{name: "memory", db: nil, want: "memory"},
		{name: "up", db: fakePinger{}, want: "up"},
		{name: "down", db: fakePinger{err: errors.New("refused")}, want: "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.db)
			svc.Now = func() time.Time { return fixed }
			got := svc.Check(context.Background())
			if got.Status != "ok" {
				t.Fatalf("expected ok, got %s", got.Status)
			}
			if got.DB != tc.want {
				t.Fatalf("expected db=%s, got %s", tc.want, got.DB)
			}
			if !got.TS.Equal(fixed) {
				t.Fatalf("unexpected ts %v", got.TS)
			}
		})
	}
}
