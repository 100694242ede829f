package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/app"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

type fakeDeliverer struct {
	result app.DeliveryResult
	err    error

	verdict    domain.FraudVerdict
	verdictErr error

	events    []domain.DeliveryEvent
	eventsErr error

	lastInput app.DeliverInput
	lastSince time.Time
}

func (f *fakeDeliverer) Deliver(ctx context.Context, in app.DeliverInput) (app.DeliveryResult, error) {
	f.lastInput = in
	return f.result, f.err
}

func (f *fakeDeliverer) PreviewFraud(ctx context.Context, rawTicket string) (domain.FraudVerdict, error) {
	return f.verdict, f.verdictErr
}

func (f *fakeDeliverer) EventsSince(ctx context.Context, since time.Time) ([]domain.DeliveryEvent, error) {
	f.lastSince = since
	return f.events, f.eventsErr
}

type fakeAuthorizer struct {
	rec domain.AuthorizationRecord
	err error
}

func (f *fakeAuthorizer) RecordDecision(ctx context.Context, in app.RecordDecisionInput) (domain.AuthorizationRecord, error) {
	return f.rec, f.err
}

type fakeStatusReader struct {
	status app.TicketStatus
	err    error
}

func (f *fakeStatusReader) Status(ctx context.Context, rawTicket string) (app.TicketStatus, error) {
	return f.status, f.err
}

type fakeShiftAdmin struct {
	state domain.ShiftState
	err   error
}

func (f *fakeShiftAdmin) Open(ctx context.Context, operator string) (domain.ShiftState, error) {
	return f.state, f.err
}

func (f *fakeShiftAdmin) Close(ctx context.Context) (domain.ShiftState, error) {
	return f.state, f.err
}

func (f *fakeShiftAdmin) Current(ctx context.Context) (domain.ShiftState, error) {
	return f.state, f.err
}

type routerFixture struct {
	deliverer  *fakeDeliverer
	authorizer *fakeAuthorizer
	status     *fakeStatusReader
	shifts     *fakeShiftAdmin
	router     http.Handler
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		deliverer:  &fakeDeliverer{},
		authorizer: &fakeAuthorizer{},
		status:     &fakeStatusReader{},
		shifts:     &fakeShiftAdmin{},
	}
	f.router = NewRouter(Services{
		Deliveries:     f.deliverer,
		Authorizations: f.authorizer,
		TicketStatus:   f.status,
		Shifts:         f.shifts,
	}, nil)
	return f
}

func (f *routerFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) errorResponse {
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp
}
