package domain

import "time"

// AuthorizationRecord is a human decision on a flagged delivery. Only the
// most recent record for a (ticket, fraud kind) pair counts; a grant admits
// exactly one delivery before ValidUntil and is then consumed.
type AuthorizationRecord struct {
	ID         string
	TicketID   string
	FraudKind  FraudKind
	Granted    bool
	Operator   string
	DecidedAt  time.Time
	ValidUntil time.Time
	ConsumedAt *time.Time
}

// Usable reports whether the record still authorizes a delivery at now.
func (r AuthorizationRecord) Usable(now time.Time) bool {
	return r.Granted && r.ConsumedAt == nil && !now.After(r.ValidUntil)
}
