package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stvaldivia/delivery-engine/internal/app"
)

// StatusReader reconciles a ticket against the ledger for display.
type StatusReader interface {
	Status(ctx context.Context, rawTicket string) (app.TicketStatus, error)
}

type itemStatusPayload struct {
	Name      string `json:"name"`
	Purchased int    `json:"purchased"`
	Delivered int    `json:"delivered"`
	Pending   int    `json:"pending"`
}

type ticketStatusResponse struct {
	TicketID     string              `json:"ticket_id"`
	PurchasedAt  string              `json:"purchased_at,omitempty"`
	Items        []itemStatusPayload `json:"items"`
	TotalPending int                 `json:"total_pending"`
	Attempts     int                 `json:"attempts"`
}

// HandleTicketStatus shows what a ticket bought, what was handed over and
// what remains.
func HandleTicketStatus(svc StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		status, err := svc.Status(r.Context(), code)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := ticketStatusResponse{
			TicketID:     status.TicketID,
			PurchasedAt:  status.PurchasedAtRaw,
			Items:        make([]itemStatusPayload, 0, len(status.Items)),
			TotalPending: status.TotalPending,
			Attempts:     status.Attempts,
		}
		for _, item := range status.Items {
			resp.Items = append(resp.Items, itemStatusPayload{
				Name:      item.Name,
				Purchased: item.Purchased,
				Delivered: item.Delivered,
				Pending:   item.Pending,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
