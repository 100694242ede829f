package app

import (
	"context"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/clock"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// ShiftStore is the writable shift lifecycle store.
type ShiftStore interface {
	Current(ctx context.Context) (domain.ShiftState, error)
	Open(ctx context.Context, st domain.ShiftState) error
	Close(ctx context.Context, at time.Time) (domain.ShiftState, error)
}

// ShiftService drives the shift lifecycle from the admin surface. The store
// enforces the single-open-shift rule; this layer only shapes the records.
type ShiftService struct {
	store ShiftStore
	clock clock.Clock
}

func NewShiftService(store ShiftStore, clk clock.Clock) *ShiftService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ShiftService{store: store, clock: clk}
}

func (s *ShiftService) Open(ctx context.Context, operator string) (domain.ShiftState, error) {
	if operator == "" {
		return domain.ShiftState{}, domain.ErrOperatorRequired
	}
	st := domain.ShiftState{
		ID:       newID(),
		Status:   domain.ShiftOpen,
		OpenedAt: s.clock.Now(),
		OpenedBy: operator,
	}
	if err := s.store.Open(ctx, st); err != nil {
		return domain.ShiftState{}, err
	}
	return st, nil
}

func (s *ShiftService) Close(ctx context.Context) (domain.ShiftState, error) {
	return s.store.Close(ctx, s.clock.Now())
}

func (s *ShiftService) Current(ctx context.Context) (domain.ShiftState, error) {
	return s.store.Current(ctx)
}
