package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/app"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// Authorizer records human fraud decisions.
type Authorizer interface {
	RecordDecision(ctx context.Context, in app.RecordDecisionInput) (domain.AuthorizationRecord, error)
}

type recordDecisionRequest struct {
	Ticket    string `json:"ticket"`
	FraudKind string `json:"fraud_kind"`
	Operator  string `json:"operator"`
	Granted   bool   `json:"granted"`
}

type authorizationResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	FraudKind  string    `json:"fraud_kind"`
	Granted    bool      `json:"granted"`
	Operator   string    `json:"operator"`
	DecidedAt  time.Time `json:"decided_at"`
	ValidUntil time.Time `json:"valid_until"`
}

// HandleRecordAuthorization records a grant or a denial for a flagged ticket.
func HandleRecordAuthorization(svc Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordDecisionRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		rec, err := svc.RecordDecision(r.Context(), app.RecordDecisionInput{
			Ticket:    req.Ticket,
			FraudKind: domain.FraudKind(req.FraudKind),
			Operator:  req.Operator,
			Granted:   req.Granted,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := authorizationResponse{
			ID:         rec.ID,
			TicketID:   rec.TicketID,
			FraudKind:  string(rec.FraudKind),
			Granted:    rec.Granted,
			Operator:   rec.Operator,
			DecidedAt:  rec.DecidedAt,
			ValidUntil: rec.ValidUntil,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
