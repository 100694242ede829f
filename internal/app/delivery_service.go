package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/clock"
	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/fraud"
	"github.com/stvaldivia/delivery-engine/internal/metrics"
	"github.com/stvaldivia/delivery-engine/internal/ticketid"
)

// LedgerRepository is the append-only store of delivery events. LockTicket,
// DeliveredQuantity and Append must be called inside WithTx; the lock holds
// until the enclosing transaction commits or rolls back.
type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTicket(ctx context.Context, ticketID string) error
	DeliveredQuantity(ctx context.Context, ticketID, itemName string) (int, error)
	CountAttempts(ctx context.Context, ticketID string) (int, error)
	Append(ctx context.Context, ev domain.DeliveryEvent) error
	EventsByTicket(ctx context.Context, ticketID string) ([]domain.DeliveryEvent, error)
	EventsSince(ctx context.Context, since time.Time) ([]domain.DeliveryEvent, error)
}

type AuthorizationStore interface {
	Create(ctx context.Context, rec domain.AuthorizationRecord) error
	Latest(ctx context.Context, ticketID string, kind domain.FraudKind) (*domain.AuthorizationRecord, error)
	MarkConsumed(ctx context.Context, id string, at time.Time) error
}

// FraudAuditor records blocked attempts. Best-effort: it runs outside the
// delivery transaction so the audit row survives the rejection.
type FraudAuditor interface {
	RecordAttempt(ctx context.Context, att domain.FraudAttempt) error
}

// SaleSource reports purchased line items for a numeric ticket key.
type SaleSource interface {
	Sale(ctx context.Context, numericKey string) (domain.Ticket, error)
}

type ShiftGate interface {
	IsOpen(ctx context.Context) (bool, error)
}

type Notifier interface {
	DeliveryRecorded(ctx context.Context, ev domain.DeliveryEvent)
}

const defaultSaleTimeout = 5 * time.Second

// DeliveryService sequences one deliver request: shift check, sale fetch,
// then lock → reconcile → fraud check → authorization check → append inside
// a single transaction, and finally best-effort side effects.
type DeliveryService struct {
	ledger      LedgerRepository
	auths       AuthorizationStore
	sales       SaleSource
	gate        ShiftGate
	detector    *fraud.Detector
	clock       clock.Clock
	auditor     FraudAuditor
	notifier    Notifier
	logger      *log.Logger
	saleTimeout time.Duration
}

type DeliveryServiceOption func(*DeliveryService)

// WithSaleTimeout bounds the sale source fetch. On expiry the whole deliver
// call fails closed; a delivery is never approved on unconfirmed quantities.
func WithSaleTimeout(d time.Duration) DeliveryServiceOption {
	return func(s *DeliveryService) {
		if d > 0 {
			s.saleTimeout = d
		}
	}
}

func WithFraudAuditor(a FraudAuditor) DeliveryServiceOption {
	return func(s *DeliveryService) {
		s.auditor = a
	}
}

func WithNotifier(n Notifier) DeliveryServiceOption {
	return func(s *DeliveryService) {
		s.notifier = n
	}
}

func WithLogger(l *log.Logger) DeliveryServiceOption {
	return func(s *DeliveryService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewDeliveryService(
	ledger LedgerRepository,
	auths AuthorizationStore,
	sales SaleSource,
	gate ShiftGate,
	detector *fraud.Detector,
	clk clock.Clock,
	opts ...DeliveryServiceOption,
) *DeliveryService {
	s := &DeliveryService{
		ledger:      ledger,
		auths:       auths,
		sales:       sales,
		gate:        gate,
		detector:    detector,
		clock:       clk,
		logger:      log.Default(),
		saleTimeout: defaultSaleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type DeliverInput struct {
	Ticket   string
	Item     string
	Quantity int
	Operator string
	Location string
}

type DeliveryResult struct {
	EventID  string
	TicketID string
	Item     string
	Quantity int
	// PendingAfter is what remains deliverable for the item once this
	// event is committed.
	PendingAfter  int
	AdminOverride bool
	// Verdict is set when the attempt tripped a fraud check and proceeded
	// under an authorization.
	Verdict *domain.FraudVerdict
}

// Deliver admits or rejects one physical hand-off. On any rejection no
// ledger state changes; on success exactly one event is committed. The sum
// of committed quantities for a (ticket, item) pair never exceeds the
// purchased quantity, under any interleaving of concurrent callers.
func (s *DeliveryService) Deliver(ctx context.Context, in DeliverInput) (DeliveryResult, error) {
	start := time.Now()
	defer func() {
		metrics.DeliverDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := s.deliver(ctx, in)
	if err != nil {
		var blocked domain.FraudBlockedError
		if errors.As(err, &blocked) {
			s.auditBlockedAttempt(ctx, blocked, in)
		}
		return DeliveryResult{}, err
	}

	metrics.DeliveriesAcceptedTotal.Inc()
	return result, nil
}

func (s *DeliveryService) deliver(ctx context.Context, in DeliverInput) (DeliveryResult, error) {
	canonical, numericKey, err := ticketid.Normalize(in.Ticket)
	if err != nil {
		return DeliveryResult{}, err
	}
	if in.Quantity <= 0 {
		return DeliveryResult{}, domain.ErrInvalidQuantity
	}
	if in.Operator == "" {
		return DeliveryResult{}, domain.ErrOperatorRequired
	}
	if in.Location == "" {
		return DeliveryResult{}, domain.ErrLocationRequired
	}

	open, err := s.gate.IsOpen(ctx)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("shift gate: %w", err)
	}
	if !open {
		return DeliveryResult{}, domain.ErrShiftNotOpen
	}

	ticket, err := s.fetchSale(ctx, numericKey)
	if err != nil {
		return DeliveryResult{}, err
	}
	purchased := ticket.PurchasedQuantity(in.Item)

	now := s.clock.Now()
	var result DeliveryResult
	var committed domain.DeliveryEvent

	err = s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.LockTicket(txCtx, canonical); err != nil {
			return err
		}

		delivered, err := s.ledger.DeliveredQuantity(txCtx, canonical, in.Item)
		if err != nil {
			return err
		}
		pending := purchased - delivered
		if in.Quantity > pending {
			if pending < 0 {
				pending = 0
			}
			return domain.OverDeliveryError{
				TicketID:  canonical,
				ItemName:  in.Item,
				Pending:   pending,
				Requested: in.Quantity,
			}
		}

		attempts, err := s.ledger.CountAttempts(txCtx, canonical)
		if err != nil {
			return err
		}

		verdict := s.detector.Evaluate(attempts, ticket.PurchasedAtRaw)
		override := false
		if verdict.IsFraud {
			metrics.FraudVerdictsTotal.WithLabelValues(string(verdict.Kind)).Inc()

			grant, err := s.auths.Latest(txCtx, canonical, verdict.Kind)
			if err != nil {
				return err
			}
			if grant == nil || !grant.Usable(now) {
				return domain.FraudBlockedError{TicketID: canonical, Verdict: verdict}
			}
			// One grant admits exactly one delivery; spend it in the same
			// transaction as the event it unlocks.
			if err := s.auths.MarkConsumed(txCtx, grant.ID, now); err != nil {
				return err
			}
			metrics.AuthorizationsConsumedTotal.Inc()
			override = true
			result.Verdict = &verdict
		}

		ev := domain.DeliveryEvent{
			ID:            newID(),
			TicketID:      canonical,
			ItemName:      in.Item,
			Quantity:      in.Quantity,
			Operator:      in.Operator,
			Location:      in.Location,
			AdminOverride: override,
			DeliveredAt:   now,
		}
		if err := s.ledger.Append(txCtx, ev); err != nil {
			return err
		}

		committed = ev
		result.EventID = ev.ID
		result.TicketID = canonical
		result.Item = in.Item
		result.Quantity = in.Quantity
		result.PendingAfter = pending - in.Quantity
		result.AdminOverride = override
		return nil
	})
	if err != nil {
		return DeliveryResult{}, err
	}

	if s.notifier != nil {
		s.notifier.DeliveryRecorded(ctx, committed)
	}
	return result, nil
}

// PreviewFraud evaluates the risk signals for a ticket without touching the
// ledger, for UI use before an operator commits to a delivery.
func (s *DeliveryService) PreviewFraud(ctx context.Context, rawTicket string) (domain.FraudVerdict, error) {
	canonical, numericKey, err := ticketid.Normalize(rawTicket)
	if err != nil {
		return domain.FraudVerdict{}, err
	}

	ticket, err := s.fetchSale(ctx, numericKey)
	if err != nil {
		return domain.FraudVerdict{}, err
	}

	attempts, err := s.ledger.CountAttempts(ctx, canonical)
	if err != nil {
		return domain.FraudVerdict{}, err
	}
	return s.detector.Evaluate(attempts, ticket.PurchasedAtRaw), nil
}

// EventsSince exposes the ledger's reporting query for dashboards.
func (s *DeliveryService) EventsSince(ctx context.Context, since time.Time) ([]domain.DeliveryEvent, error) {
	return s.ledger.EventsSince(ctx, since)
}

func (s *DeliveryService) fetchSale(ctx context.Context, numericKey string) (domain.Ticket, error) {
	saleCtx, cancel := context.WithTimeout(ctx, s.saleTimeout)
	defer cancel()

	ticket, err := s.sales.Sale(saleCtx, numericKey)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Ticket{}, fmt.Errorf("%w: %v", domain.ErrSaleSourceUnavailable, err)
		}
		return domain.Ticket{}, err
	}
	return ticket, nil
}

func (s *DeliveryService) auditBlockedAttempt(ctx context.Context, blocked domain.FraudBlockedError, in DeliverInput) {
	if s.auditor == nil {
		return
	}
	att := domain.FraudAttempt{
		ID:          newID(),
		TicketID:    blocked.TicketID,
		FraudKind:   blocked.Verdict.Kind,
		ItemName:    in.Item,
		Quantity:    in.Quantity,
		Operator:    in.Operator,
		Location:    in.Location,
		AttemptedAt: s.clock.Now(),
	}
	if err := s.auditor.RecordAttempt(ctx, att); err != nil {
		s.logger.Printf("WARN: failed to record fraud attempt for %s: %v", blocked.TicketID, err)
	}
}
