package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/app"
	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/metrics"
)

// Deliverer is the delivery surface the handlers need.
type Deliverer interface {
	Deliver(ctx context.Context, in app.DeliverInput) (app.DeliveryResult, error)
	PreviewFraud(ctx context.Context, rawTicket string) (domain.FraudVerdict, error)
	EventsSince(ctx context.Context, since time.Time) ([]domain.DeliveryEvent, error)
}

type createDeliveryRequest struct {
	Ticket   string `json:"ticket"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Operator string `json:"operator"`
	Location string `json:"location"`
}

type deliveryResponse struct {
	EventID       string               `json:"event_id"`
	TicketID      string               `json:"ticket_id"`
	Item          string               `json:"item"`
	Quantity      int                  `json:"quantity"`
	PendingAfter  int                  `json:"pending_after"`
	AdminOverride bool                 `json:"admin_override"`
	Verdict       *fraudVerdictPayload `json:"verdict,omitempty"`
}

type fraudVerdictPayload struct {
	IsFraud bool           `json:"is_fraud"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

func verdictPayload(v *domain.FraudVerdict) *fraudVerdictPayload {
	if v == nil {
		return nil
	}
	return &fraudVerdictPayload{
		IsFraud: v.IsFraud,
		Kind:    string(v.Kind),
		Details: v.Details,
	}
}

// HandleCreateDelivery returns the handler for recording one hand-off.
func HandleCreateDelivery(svc Deliverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDeliveryRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			metrics.DeliveriesRejectedTotal.WithLabelValues(codeInvalidRequestBody).Inc()
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		result, err := svc.Deliver(r.Context(), app.DeliverInput{
			Ticket:   req.Ticket,
			Item:     req.Item,
			Quantity: req.Quantity,
			Operator: req.Operator,
			Location: req.Location,
		})
		if err != nil {
			reason := writeDomainError(w, err)
			metrics.DeliveriesRejectedTotal.WithLabelValues(reason).Inc()
			return
		}

		resp := deliveryResponse{
			EventID:       result.EventID,
			TicketID:      result.TicketID,
			Item:          result.Item,
			Quantity:      result.Quantity,
			PendingAfter:  result.PendingAfter,
			AdminOverride: result.AdminOverride,
			Verdict:       verdictPayload(result.Verdict),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type deliveryEventPayload struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	Item          string    `json:"item"`
	Quantity      int       `json:"quantity"`
	Operator      string    `json:"operator"`
	Location      string    `json:"location"`
	AdminOverride bool      `json:"admin_override"`
	DeliveredAt   time.Time `json:"delivered_at"`
}

// HandleListDeliveries returns delivery events for reporting. The since
// parameter is RFC 3339; it defaults to the start of the current day in UTC.
func HandleListDeliveries(svc Deliverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().UTC().Truncate(24 * time.Hour)
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidSince, "since must be RFC 3339")
				return
			}
			since = parsed
		}

		events, err := svc.EventsSince(r.Context(), since)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		payload := make([]deliveryEventPayload, 0, len(events))
		for _, ev := range events {
			payload = append(payload, deliveryEventPayload{
				ID:            ev.ID,
				TicketID:      ev.TicketID,
				Item:          ev.ItemName,
				Quantity:      ev.Quantity,
				Operator:      ev.Operator,
				Location:      ev.Location,
				AdminOverride: ev.AdminOverride,
				DeliveredAt:   ev.DeliveredAt,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"deliveries": payload})
	}
}

// HandleFraudPreview evaluates the heuristics without touching the ledger.
func HandleFraudPreview(svc Deliverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticket := r.URL.Query().Get("ticket")
		if ticket == "" {
			writeError(w, http.StatusBadRequest, codeInvalidTicket, "ticket is required")
			return
		}

		verdict, err := svc.PreviewFraud(r.Context(), ticket)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(verdictPayload(&verdict))
	}
}
