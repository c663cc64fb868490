// Package usage is the append-only credits ledger.
package usage

import (
	"context"
	"fmt"
	"time"
)

type store interface {
	Insert(ctx context.Context, r Record) error
	SumSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Service charges credits and reports monthly spend.
type Service struct {
	store            store
	CreditsPerAction int
	MonthlyLimit     int
	Now              func() time.Time
}

// NewService constructs a Service with an in-memory store.
func NewService(creditsPerAction, monthlyLimit int) *Service {
	return newService(newMemoryStore(), creditsPerAction, monthlyLimit)
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store, creditsPerAction, monthlyLimit int) *Service {
	return newService(pgStore, creditsPerAction, monthlyLimit)
}

func newService(st store, creditsPerAction, monthlyLimit int) *Service {
	return &Service{store: st, CreditsPerAction: creditsPerAction, MonthlyLimit: monthlyLimit, Now: time.Now}
}

// Charge records one fixed-cost action attempt. Charges are never refunded.
func (s *Service) Charge(ctx context.Context, userID string) (Record, error) {
	r := Record{UserID: userID, Credits: s.CreditsPerAction, At: s.Now().UTC()}
	if err := s.store.Insert(ctx, r); err != nil {
		return Record{}, fmt.Errorf("record usage: %w", err)
	}
	return r, nil
}

// CurrentMonth sums the user's charges since the start of the UTC month.
func (s *Service) CurrentMonth(ctx context.Context, userID string) (Month, error) {
	total, err := s.store.SumSince(ctx, userID, MonthStart(s.Now()))
	if err != nil {
		return Month{}, fmt.Errorf("sum usage: %w", err)
	}
	remaining := s.MonthlyLimit - total
	if remaining < 0 {
		remaining = 0
	}
	return Month{UserID: userID, TotalCredits: total, RemainingCredits: remaining, Limit: s.MonthlyLimit}, nil
}
