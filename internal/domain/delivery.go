package domain

import "time"

// DeliveryEvent is one physical hand-off of items against a ticket.
// Events are append-only; corrections happen as compensating events at a
// higher layer, never as updates or deletes here.
type DeliveryEvent struct {
	ID            string
	TicketID      string
	ItemName      string
	Quantity      int
	Operator      string
	Location      string
	AdminOverride bool
	DeliveredAt   time.Time
}

// FraudAttempt is an audit record of a blocked delivery attempt. It lives
// outside the delivery transaction so a rejection still leaves a trace.
type FraudAttempt struct {
	ID          string
	TicketID    string
	FraudKind   FraudKind
	ItemName    string
	Quantity    int
	Operator    string
	Location    string
	AttemptedAt time.Time
}
