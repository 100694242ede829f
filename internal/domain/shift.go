package domain

import "time"

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

// ShiftState is one operational period. Deliveries are only admitted while a
// shift is open; the open/close transition is the shift store's to make.
type ShiftState struct {
	ID       string
	Status   ShiftStatus
	OpenedAt time.Time
	OpenedBy string
	ClosedAt *time.Time
}

func (s ShiftState) IsOpen() bool {
	return s.Status == ShiftOpen
}
