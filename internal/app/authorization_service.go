package app

import (
	"context"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/clock"
	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/ticketid"
)

const defaultValidityWindow = time.Hour

// AuthorizationService records human override decisions on flagged tickets.
// A grant is valid for one matching delivery within the validity window;
// the delivery path consumes it.
type AuthorizationService struct {
	store  AuthorizationStore
	clock  clock.Clock
	window time.Duration
}

type AuthorizationServiceOption func(*AuthorizationService)

func WithValidityWindow(d time.Duration) AuthorizationServiceOption {
	return func(s *AuthorizationService) {
		if d > 0 {
			s.window = d
		}
	}
}

func NewAuthorizationService(store AuthorizationStore, clk clock.Clock, opts ...AuthorizationServiceOption) *AuthorizationService {
	s := &AuthorizationService{
		store:  store,
		clock:  clk,
		window: defaultValidityWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RecordDecisionInput struct {
	Ticket    string
	FraudKind domain.FraudKind
	Operator  string
	Granted   bool
}

func (s *AuthorizationService) RecordDecision(ctx context.Context, in RecordDecisionInput) (domain.AuthorizationRecord, error) {
	canonical, _, err := ticketid.Normalize(in.Ticket)
	if err != nil {
		return domain.AuthorizationRecord{}, err
	}
	if !domain.ValidFraudKind(in.FraudKind) {
		return domain.AuthorizationRecord{}, domain.ErrInvalidFraudKind
	}
	if in.Operator == "" {
		return domain.AuthorizationRecord{}, domain.ErrOperatorRequired
	}

	now := s.clock.Now()
	rec := domain.AuthorizationRecord{
		ID:         newID(),
		TicketID:   canonical,
		FraudKind:  in.FraudKind,
		Granted:    in.Granted,
		Operator:   in.Operator,
		DecidedAt:  now,
		ValidUntil: now.Add(s.window),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return domain.AuthorizationRecord{}, err
	}
	return rec, nil
}

// IsAuthorized reports whether the latest decision for the pair currently
// admits a delivery. Expired grants, consumed grants and denials all read
// as unauthorized.
func (s *AuthorizationService) IsAuthorized(ctx context.Context, rawTicket string, kind domain.FraudKind) (bool, error) {
	canonical, _, err := ticketid.Normalize(rawTicket)
	if err != nil {
		return false, err
	}
	if !domain.ValidFraudKind(kind) {
		return false, domain.ErrInvalidFraudKind
	}

	rec, err := s.store.Latest(ctx, canonical, kind)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Usable(s.clock.Now()), nil
}
