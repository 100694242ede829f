package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

// ShiftAdmin drives the shift lifecycle.
type ShiftAdmin interface {
	Open(ctx context.Context, operator string) (domain.ShiftState, error)
	Close(ctx context.Context) (domain.ShiftState, error)
	Current(ctx context.Context) (domain.ShiftState, error)
}

type openShiftRequest struct {
	Operator string `json:"operator"`
}

type shiftResponse struct {
	ID       string     `json:"id,omitempty"`
	Status   string     `json:"status"`
	OpenedBy string     `json:"opened_by,omitempty"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

func shiftPayload(st domain.ShiftState) shiftResponse {
	resp := shiftResponse{
		ID:       st.ID,
		Status:   string(st.Status),
		OpenedBy: st.OpenedBy,
		ClosedAt: st.ClosedAt,
	}
	if !st.OpenedAt.IsZero() {
		openedAt := st.OpenedAt
		resp.OpenedAt = &openedAt
	}
	return resp
}

func HandleOpenShift(svc ShiftAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openShiftRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		st, err := svc.Open(r.Context(), req.Operator)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(shiftPayload(st))
	}
}

func HandleCloseShift(svc ShiftAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Close(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(shiftPayload(st))
	}
}

func HandleCurrentShift(svc ShiftAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Current(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(shiftPayload(st))
	}
}
