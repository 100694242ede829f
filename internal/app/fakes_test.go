package app

import (
	"context"
	"sync"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// fakeLedger mimics the postgres ledger closely enough to exercise the
// locked read-check-append path: WithTx buffers appends until commit, and
// LockTicket serializes transactions per ticket the way the advisory lock
// does, so the concurrency tests see real interleavings.
type fakeLedger struct {
	mu     sync.Mutex
	events []domain.DeliveryEvent
	locks  map[string]*sync.Mutex

	appendErr error
}

func newFakeLedger(events ...domain.DeliveryEvent) *fakeLedger {
	return &fakeLedger{
		events: append([]domain.DeliveryEvent{}, events...),
		locks:  map[string]*sync.Mutex{},
	}
}

type fakeTx struct {
	pending []domain.DeliveryEvent
	held    []*sync.Mutex
}

type fakeTxKey struct{}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	tx := &fakeTx{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))

	f.mu.Lock()
	if err == nil {
		f.events = append(f.events, tx.pending...)
	}
	f.mu.Unlock()

	for _, m := range tx.held {
		m.Unlock()
	}
	return err
}

func (f *fakeLedger) tx(ctx context.Context) *fakeTx {
	tx, _ := ctx.Value(fakeTxKey{}).(*fakeTx)
	return tx
}

func (f *fakeLedger) LockTicket(ctx context.Context, ticketID string) error {
	tx := f.tx(ctx)

	f.mu.Lock()
	m, ok := f.locks[ticketID]
	if !ok {
		m = &sync.Mutex{}
		f.locks[ticketID] = m
	}
	f.mu.Unlock()

	m.Lock()
	tx.held = append(tx.held, m)
	return nil
}

func (f *fakeLedger) DeliveredQuantity(ctx context.Context, ticketID, itemName string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, ev := range f.committedAndPending(ctx) {
		if ev.TicketID == ticketID && ev.ItemName == itemName {
			total += ev.Quantity
		}
	}
	return total, nil
}

func (f *fakeLedger) CountAttempts(ctx context.Context, ticketID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ev := range f.committedAndPending(ctx) {
		if ev.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) Append(ctx context.Context, ev domain.DeliveryEvent) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	if tx := f.tx(ctx); tx != nil {
		tx.pending = append(tx.pending, ev)
		return nil
	}
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeLedger) EventsByTicket(_ context.Context, ticketID string) ([]domain.DeliveryEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DeliveryEvent
	for _, ev := range f.events {
		if ev.TicketID == ticketID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeLedger) EventsSince(_ context.Context, since time.Time) ([]domain.DeliveryEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DeliveryEvent
	for _, ev := range f.events {
		if !ev.DeliveredAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// committedAndPending must be called with f.mu held.
func (f *fakeLedger) committedAndPending(ctx context.Context) []domain.DeliveryEvent {
	all := append([]domain.DeliveryEvent{}, f.events...)
	if tx := f.tx(ctx); tx != nil {
		all = append(all, tx.pending...)
	}
	return all
}

func (f *fakeLedger) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeAuthStore struct {
	mu      sync.Mutex
	records []domain.AuthorizationRecord
}

func (f *fakeAuthStore) Create(_ context.Context, rec domain.AuthorizationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAuthStore) Latest(_ context.Context, ticketID string, kind domain.FraudKind) (*domain.AuthorizationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].TicketID == ticketID && f.records[i].FraudKind == kind {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthStore) MarkConsumed(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			consumed := at
			f.records[i].ConsumedAt = &consumed
			return nil
		}
	}
	return nil
}

type fakeSaleSource struct {
	tickets map[string]domain.Ticket
	err     error
	// block makes Sale wait for ctx cancellation, simulating a hung API.
	block bool
}

func (f *fakeSaleSource) Sale(ctx context.Context, numericKey string) (domain.Ticket, error) {
	if f.block {
		<-ctx.Done()
		return domain.Ticket{}, ctx.Err()
	}
	if f.err != nil {
		return domain.Ticket{}, f.err
	}
	ticket, ok := f.tickets[numericKey]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return ticket, nil
}

type stubGate struct {
	open bool
	err  error
}

func (g stubGate) IsOpen(context.Context) (bool, error) {
	return g.open, g.err
}

type fakeAuditor struct {
	mu       sync.Mutex
	attempts []domain.FraudAttempt
}

func (f *fakeAuditor) RecordAttempt(_ context.Context, att domain.FraudAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, att)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.DeliveryEvent
}

func (f *fakeNotifier) DeliveryRecorded(_ context.Context, ev domain.DeliveryEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}
