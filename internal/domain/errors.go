package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTicketFormat   = errors.New("invalid ticket format")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrOperatorRequired      = errors.New("operator required")
	ErrLocationRequired      = errors.New("location required")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrShiftNotOpen          = errors.New("shift not open")
	ErrShiftAlreadyOpen      = errors.New("shift already open")
	ErrSaleSourceUnavailable = errors.New("sale source unavailable")
	ErrInvalidFraudKind      = errors.New("invalid fraud kind")
)

// OverDeliveryError rejects a request that exceeds the pending quantity.
// The request is never clamped down; partial fulfillment is the operator's
// call, so the rejection carries both sides of the comparison.
type OverDeliveryError struct {
	TicketID  string
	ItemName  string
	Pending   int
	Requested int
}

func (e OverDeliveryError) Error() string {
	return fmt.Sprintf("over-delivery of %q on %s: requested %d, pending %d",
		e.ItemName, e.TicketID, e.Requested, e.Pending)
}

// FraudBlockedError rejects a delivery pending an out-of-band authorization.
type FraudBlockedError struct {
	TicketID string
	Verdict  FraudVerdict
}

func (e FraudBlockedError) Error() string {
	return fmt.Sprintf("delivery blocked on %s: %s", e.TicketID, e.Verdict.Kind)
}
