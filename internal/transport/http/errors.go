package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stvaldivia/delivery-engine/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidTicket         = "invalid_ticket"
	codeInvalidQuantity       = "invalid_quantity"
	codeOperatorRequired      = "operator_required"
	codeLocationRequired      = "location_required"
	codeInvalidFraudKind      = "invalid_fraud_kind"
	codeInvalidSince          = "invalid_since"
	codeTicketNotFound        = "ticket_not_found"
	codeShiftNotOpen          = "shift_not_open"
	codeShiftAlreadyOpen      = "shift_already_open"
	codeOverDelivery          = "over_delivery"
	codeFraudBlocked          = "fraud_blocked"
	codeSaleSourceUnavailable = "sale_source_unavailable"
	codeInternalError         = "internal_error"
)

// errorResponse carries the structured detail of a rejection alongside the
// message. Pending and Requested are set on over-delivery; Verdict on a
// fraud block. Pointers keep a meaningful zero (pending: 0) on the wire
// while leaving the fields off every other rejection.
type errorResponse struct {
	Error     string               `json:"error"`
	Code      string               `json:"code"`
	Pending   *int                 `json:"pending,omitempty"`
	Requested *int                 `json:"requested,omitempty"`
	Verdict   *fraudVerdictPayload `json:"verdict,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// mapDomainError translates service errors into a status and a stable error
// code. The code doubles as the rejection reason on the metrics side.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidTicketFormat):
		return http.StatusBadRequest, codeInvalidTicket
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, codeInvalidQuantity
	case errors.Is(err, domain.ErrOperatorRequired):
		return http.StatusBadRequest, codeOperatorRequired
	case errors.Is(err, domain.ErrLocationRequired):
		return http.StatusBadRequest, codeLocationRequired
	case errors.Is(err, domain.ErrInvalidFraudKind):
		return http.StatusBadRequest, codeInvalidFraudKind
	case errors.Is(err, domain.ErrTicketNotFound):
		return http.StatusNotFound, codeTicketNotFound
	case errors.Is(err, domain.ErrShiftNotOpen):
		return http.StatusLocked, codeShiftNotOpen
	case errors.Is(err, domain.ErrShiftAlreadyOpen):
		return http.StatusConflict, codeShiftAlreadyOpen
	case errors.Is(err, domain.ErrSaleSourceUnavailable):
		return http.StatusServiceUnavailable, codeSaleSourceUnavailable
	}

	var over domain.OverDeliveryError
	if errors.As(err, &over) {
		return http.StatusConflict, codeOverDelivery
	}
	var blocked domain.FraudBlockedError
	if errors.As(err, &blocked) {
		return http.StatusForbidden, codeFraudBlocked
	}
	return http.StatusInternalServerError, codeInternalError
}

// writeDomainError maps and writes err, returning the code for callers that
// also record it as a rejection reason. Over-delivery and fraud-block
// carriers keep their structured detail so callers never have to parse the
// message string.
func writeDomainError(w http.ResponseWriter, err error) string {
	status, code := mapDomainError(err)
	resp := errorResponse{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}

	var over domain.OverDeliveryError
	if errors.As(err, &over) {
		pending, requested := over.Pending, over.Requested
		resp.Pending = &pending
		resp.Requested = &requested
	}
	var blocked domain.FraudBlockedError
	if errors.As(err, &blocked) {
		verdict := blocked.Verdict
		resp.Verdict = verdictPayload(&verdict)
	}

	writeErrorResponse(w, status, resp)
	return code
}
