package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/app"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

func TestHandleCreateDelivery_Created(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.result = app.DeliveryResult{
		EventID:      "ev-1",
		TicketID:     "BMB 7",
		Item:         "Beer",
		Quantity:     2,
		PendingAfter: 0,
	}

	rec := f.do("POST", "/deliveries", createDeliveryRequest{
		Ticket:   "bmb 7",
		Item:     "Beer",
		Quantity: 2,
		Operator: "bartender1",
		Location: "barra_central",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp deliveryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EventID != "ev-1" || resp.TicketID != "BMB 7" || resp.PendingAfter != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Verdict != nil {
		t.Fatalf("expected no verdict, got %+v", resp.Verdict)
	}

	if f.deliverer.lastInput.Ticket != "bmb 7" || f.deliverer.lastInput.Quantity != 2 {
		t.Fatalf("unexpected input: %+v", f.deliverer.lastInput)
	}
}

func TestHandleCreateDelivery_OverrideCarriesVerdict(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.result = app.DeliveryResult{
		EventID:       "ev-2",
		TicketID:      "BMB 7",
		Item:          "Beer",
		Quantity:      1,
		AdminOverride: true,
		Verdict: &domain.FraudVerdict{
			IsFraud: true,
			Kind:    domain.FraudStaleTicket,
			Details: map[string]any{"days_old": 2.5},
		},
	}

	rec := f.do("POST", "/deliveries", createDeliveryRequest{
		Ticket: "BMB 7", Item: "Beer", Quantity: 1, Operator: "b1", Location: "l1",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp deliveryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.AdminOverride || resp.Verdict == nil || resp.Verdict.Kind != "stale_ticket" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleCreateDelivery_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid ticket", domain.ErrInvalidTicketFormat, http.StatusBadRequest, "invalid_ticket"},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{"operator required", domain.ErrOperatorRequired, http.StatusBadRequest, "operator_required"},
		{"ticket not found", domain.ErrTicketNotFound, http.StatusNotFound, "ticket_not_found"},
		{"shift not open", domain.ErrShiftNotOpen, http.StatusLocked, "shift_not_open"},
		{"sale source down", domain.ErrSaleSourceUnavailable, http.StatusServiceUnavailable, "sale_source_unavailable"},
		{"over delivery", domain.OverDeliveryError{TicketID: "BMB 7", ItemName: "Beer", Pending: 0, Requested: 1}, http.StatusConflict, "over_delivery"},
		{"fraud blocked", domain.FraudBlockedError{TicketID: "BMB 7", Verdict: domain.FraudVerdict{IsFraud: true, Kind: domain.FraudStaleTicket}}, http.StatusForbidden, "fraud_blocked"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newRouterFixture()
			f.deliverer.err = tc.err

			rec := f.do("POST", "/deliveries", createDeliveryRequest{
				Ticket: "BMB 7", Item: "Beer", Quantity: 1, Operator: "b1", Location: "l1",
			})

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if resp := decodeError(rec); resp.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleCreateDelivery_OverDeliveryCarriesQuantities(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.err = domain.OverDeliveryError{
		TicketID:  "BMB 7",
		ItemName:  "Beer",
		Pending:   0,
		Requested: 1,
	}

	rec := f.do("POST", "/deliveries", createDeliveryRequest{
		Ticket: "BMB 7", Item: "Beer", Quantity: 1, Operator: "b1", Location: "l1",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeError(rec)
	if resp.Code != "over_delivery" {
		t.Fatalf("expected over_delivery, got %s", resp.Code)
	}
	if resp.Pending == nil || *resp.Pending != 0 {
		t.Fatalf("expected pending 0 in body, got %v", resp.Pending)
	}
	if resp.Requested == nil || *resp.Requested != 1 {
		t.Fatalf("expected requested 1 in body, got %v", resp.Requested)
	}
	if resp.Verdict != nil {
		t.Fatalf("expected no verdict on over-delivery, got %+v", resp.Verdict)
	}
}

func TestHandleCreateDelivery_FraudBlockedCarriesVerdict(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.err = domain.FraudBlockedError{
		TicketID: "BMB 7",
		Verdict: domain.FraudVerdict{
			IsFraud: true,
			Kind:    domain.FraudRepeatedAttempts,
			Details: map[string]any{"attempts": 4, "max_attempts": 3},
		},
	}

	rec := f.do("POST", "/deliveries", createDeliveryRequest{
		Ticket: "BMB 7", Item: "Beer", Quantity: 1, Operator: "b1", Location: "l1",
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	resp := decodeError(rec)
	if resp.Code != "fraud_blocked" {
		t.Fatalf("expected fraud_blocked, got %s", resp.Code)
	}
	if resp.Verdict == nil || !resp.Verdict.IsFraud || resp.Verdict.Kind != "repeated_attempts" {
		t.Fatalf("expected verdict in body, got %+v", resp.Verdict)
	}
	if got := resp.Verdict.Details["attempts"]; got != float64(4) {
		t.Fatalf("expected attempts detail 4, got %v", got)
	}
	if resp.Pending != nil || resp.Requested != nil {
		t.Fatalf("expected no quantity fields on fraud block, got %+v", resp)
	}
}

func TestHandleCreateDelivery_BadBody(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	rec := f.do("POST", "/deliveries", map[string]any{"ticket": "BMB 7", "unknown_field": true})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(rec); resp.Code != "invalid_request_body" {
		t.Fatalf("expected invalid_request_body, got %s", resp.Code)
	}
}

func TestHandleListDeliveries(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.events = []domain.DeliveryEvent{
		{
			ID:          "ev-1",
			TicketID:    "BMB 7",
			ItemName:    "Beer",
			Quantity:    2,
			Operator:    "b1",
			Location:    "l1",
			DeliveredAt: time.Date(2025, 3, 8, 21, 0, 0, 0, time.UTC),
		},
	}

	rec := f.do("GET", "/deliveries?since=2025-03-08T00:00:00Z", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	want := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	if !f.deliverer.lastSince.Equal(want) {
		t.Fatalf("expected since %v, got %v", want, f.deliverer.lastSince)
	}

	var resp struct {
		Deliveries []deliveryEventPayload `json:"deliveries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Deliveries) != 1 || resp.Deliveries[0].ID != "ev-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleListDeliveries_BadSince(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	rec := f.do("GET", "/deliveries?since=yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(rec); resp.Code != "invalid_since" {
		t.Fatalf("expected invalid_since, got %s", resp.Code)
	}
}

func TestHandleFraudPreview(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.deliverer.verdict = domain.FraudVerdict{
		IsFraud: true,
		Kind:    domain.FraudRepeatedAttempts,
		Details: map[string]any{"attempts": 4},
	}

	rec := f.do("GET", "/fraud/preview?ticket=BMB%207", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp fraudVerdictPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsFraud || resp.Kind != "repeated_attempts" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleFraudPreview_MissingTicket(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	rec := f.do("GET", "/fraud/preview", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
