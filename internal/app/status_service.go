package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/ticketid"
)

// TicketStatusService builds the read-only per-ticket view the scanner
// screen renders: purchased lines joined with delivered sums. It takes no
// locks; the numbers are advisory and re-checked by Deliver under the lock.
type TicketStatusService struct {
	ledger      LedgerRepository
	sales       SaleSource
	saleTimeout time.Duration
}

func NewTicketStatusService(ledger LedgerRepository, sales SaleSource) *TicketStatusService {
	return &TicketStatusService{
		ledger:      ledger,
		sales:       sales,
		saleTimeout: defaultSaleTimeout,
	}
}

type ItemStatus struct {
	Name      string
	Purchased int
	Delivered int
	Pending   int
}

type TicketStatus struct {
	TicketID       string
	PurchasedAtRaw string
	Items          []ItemStatus
	TotalPending   int
	Attempts       int
}

func (s *TicketStatusService) Status(ctx context.Context, rawTicket string) (TicketStatus, error) {
	canonical, numericKey, err := ticketid.Normalize(rawTicket)
	if err != nil {
		return TicketStatus{}, err
	}

	saleCtx, cancel := context.WithTimeout(ctx, s.saleTimeout)
	defer cancel()
	ticket, err := s.sales.Sale(saleCtx, numericKey)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return TicketStatus{}, fmt.Errorf("%w: %v", domain.ErrSaleSourceUnavailable, err)
		}
		return TicketStatus{}, err
	}

	events, err := s.ledger.EventsByTicket(ctx, canonical)
	if err != nil {
		return TicketStatus{}, err
	}

	delivered := make(map[string]int)
	for _, ev := range events {
		delivered[ev.ItemName] += ev.Quantity
	}

	status := TicketStatus{
		TicketID:       canonical,
		PurchasedAtRaw: ticket.PurchasedAtRaw,
		Attempts:       len(events),
	}

	// Preserve sale order while merging duplicate purchased lines.
	seen := make(map[string]int)
	for _, line := range ticket.Lines {
		if idx, ok := seen[line.Name]; ok {
			status.Items[idx].Purchased += line.Quantity
			continue
		}
		seen[line.Name] = len(status.Items)
		status.Items = append(status.Items, ItemStatus{
			Name:      line.Name,
			Purchased: line.Quantity,
			Delivered: delivered[line.Name],
		})
	}
	for i := range status.Items {
		pending := status.Items[i].Purchased - status.Items[i].Delivered
		if pending < 0 {
			pending = 0
		}
		status.Items[i].Pending = pending
		status.TotalPending += pending
	}
	return status, nil
}
