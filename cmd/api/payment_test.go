package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pasal/internal/metrics"
	"pasal/internal/payflow"
	"pasal/internal/pending"
	"pasal/internal/session"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	registry := prometheus.NewRegistry()
	return &application{
		config: config{
			env: "test",
			session: sessionConfig{
				cookieName: "pasal_sid",
			},
		},
		logger:       zap.NewNop().Sugar(),
		metrics:      metrics.New(registry),
		promRegistry: registry,
	}
}

func TestGatewayFailureRedirectForwardsQuery(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/payment/callback/esewa/failure?data=abc&foo=bar", nil)
	rec := httptest.NewRecorder()

	app.gatewayFailureRedirectHandler(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/payment/esewa/failure?data=abc&foo=bar", rec.Header().Get("Location"))
}

func TestGatewayFailureRedirectKhalti(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/payment/callback/khalti/failure", nil)
	rec := httptest.NewRecorder()

	app.gatewayFailureRedirectHandler(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/payment/khalti/failure", rec.Header().Get("Location"))
}

func TestFailurePageRendersReasonAndRef(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/payment/esewa/failure?reason=verify_rejected&support_ref=REF11&payment_request_id=11", nil)
	rec := httptest.NewRecorder()

	app.failurePageHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "eSewa payment failed")
	assert.Contains(t, body, "The payment was not completed.")
	assert.Contains(t, body, "REF11")
	assert.Contains(t, body, `name="payment_request_id" value="11"`)
	assert.Equal(t, "no-store, max-age=0", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestFailurePageUnknownReason(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/payment/khalti/failure?reason=whatever", nil)
	rec := httptest.NewRecorder()

	app.failurePageHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Khalti payment failed")
	assert.Contains(t, body, "The payment could not be completed.")
	// No support reference, no cancel form.
	assert.NotContains(t, body, "Quote reference")
	assert.NotContains(t, body, "/payment/cancel")
}

func TestFailurePageCOD(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/payment/cod/failure?reason=no_pending_payment", nil)
	rec := httptest.NewRecorder()

	app.failurePageHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Cash on Delivery payment failed")
	assert.Contains(t, body, "We could not find a payment matching this transaction.")
}

func TestNotifyPageRedirectsAfterDelay(t *testing.T) {
	app := newTestApp(t)
	rec := httptest.NewRecorder()

	app.renderNotifyPage(rec, "success", "Payment confirmed", "Taking you to your order…",
		"/payment/esewa/success?payment_request_id=11")

	body := rec.Body.String()
	assert.Contains(t, body, "Payment confirmed")
	assert.Contains(t, body, "/payment/esewa/success?payment_request_id=11")
	assert.Contains(t, body, "setTimeout")
	assert.Contains(t, body, "1200")
}

func TestSuccessPageNamesGateway(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/payment/khalti/success", nil)
	rec := httptest.NewRecorder()

	app.successPageHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Paid via Khalti")
}

// stubPendingStore is an in-memory pending.Store for handler tests.
type stubPendingStore struct {
	records map[int64]*pending.Payment
}

func newStubPendingStore(records ...*pending.Payment) *stubPendingStore {
	s := &stubPendingStore{records: make(map[int64]*pending.Payment)}
	for _, p := range records {
		s.records[p.PaymentRequestID] = p
	}
	return s
}

func (s *stubPendingStore) Put(_ context.Context, p *pending.Payment) error {
	s.records[p.PaymentRequestID] = p
	return nil
}

func (s *stubPendingStore) GetByID(_ context.Context, id int64) (*pending.Payment, error) {
	return s.records[id], nil
}

func (s *stubPendingStore) GetByEsewaRef(_ context.Context, _ string) (*pending.Payment, error) {
	return nil, nil
}

func (s *stubPendingStore) GetByKhaltiPidx(_ context.Context, _ string) (*pending.Payment, error) {
	return nil, nil
}

func (s *stubPendingStore) Delete(_ context.Context, id int64) error {
	delete(s.records, id)
	return nil
}

func newCancelTestApp(t *testing.T, store *stubPendingStore) *application {
	t.Helper()
	app := newTestApp(t)
	app.pendingPayments = store
	app.reconciler = payflow.NewReconciler(nil, store, nil, nil, zap.NewNop().Sugar())
	return app
}

func cancelRequest(paymentRequestID string) *http.Request {
	form := url.Values{}
	if paymentRequestID != "" {
		form.Set("payment_request_id", paymentRequestID)
	}
	req := httptest.NewRequest(http.MethodPost, "/payment/cancel",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCancelPaymentRequiresSession(t *testing.T) {
	store := newStubPendingStore(&pending.Payment{PaymentRequestID: 42, OrderID: 9, UserID: 1234})
	app := newCancelTestApp(t, store)

	rec := httptest.NewRecorder()
	app.cancelPaymentHandler(rec, cancelRequest("42"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotNil(t, store.records[42], "record must survive an anonymous cancel")
}

func TestCancelPaymentRefusesForeignRecord(t *testing.T) {
	store := newStubPendingStore(&pending.Payment{PaymentRequestID: 42, OrderID: 9, UserID: 1234})
	app := newCancelTestApp(t, store)

	req := cancelRequest("42")
	req = req.WithContext(session.WithContext(req.Context(), &session.Session{ID: "sid", UserID: 777}))
	rec := httptest.NewRecorder()
	app.cancelPaymentHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotNil(t, store.records[42], "record must survive a cross-user cancel")
}

func TestCancelPaymentByOwner(t *testing.T) {
	store := newStubPendingStore(&pending.Payment{PaymentRequestID: 42, OrderID: 9, UserID: 1234})
	app := newCancelTestApp(t, store)

	req := cancelRequest("42")
	req = req.WithContext(session.WithContext(req.Context(), &session.Session{ID: "sid", UserID: 1234}))
	rec := httptest.NewRecorder()
	app.cancelPaymentHandler(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Nil(t, store.records[42])
}

func TestCancelPaymentAbsentRecordIsNoop(t *testing.T) {
	store := newStubPendingStore()
	app := newCancelTestApp(t, store)

	req := cancelRequest("42")
	req = req.WithContext(session.WithContext(req.Context(), &session.Session{ID: "sid", UserID: 1234}))
	rec := httptest.NewRecorder()
	app.cancelPaymentHandler(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCancelPaymentRejectsBadID(t *testing.T) {
	app := newCancelTestApp(t, newStubPendingStore())

	req := cancelRequest("not-a-number")
	req = req.WithContext(session.WithContext(req.Context(), &session.Session{ID: "sid", UserID: 1234}))
	rec := httptest.NewRecorder()
	app.cancelPaymentHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
