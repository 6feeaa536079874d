package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pasal/internal/paylog"
	"pasal/internal/pending"
)

// SupportPayment is everything support can see about one payment attempt:
// the decoded reference, the pending record if it still exists, and the
// audit trail.
type SupportPayment struct {
	PaymentRequestID int64            `json:"payment_request_id"`
	RefIssuedAt      *time.Time       `json:"ref_issued_at,omitempty"`
	Pending          *pending.Payment `json:"pending,omitempty"`
	Attempts         []paylog.Attempt `json:"attempts"`
}

//	@Summary		Look up a payment by support reference
//	@Description	Accepts the reference code shown on failure pages, or a raw payment request id
//	@Tags			support
//	@Produce		json
//	@Param			ref	path		string	true	"Support reference or payment request id"
//	@Success		200	{object}	SupportPayment
//	@Failure		400	{object}	error
//	@Router			/support/payments/{ref} [get]
func (app *application) supportPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	out := SupportPayment{}

	// A bare number is a payment request id; anything else is a reference
	// code from a failure page.
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		out.PaymentRequestID = id
	} else {
		id, issued, err := app.refs.Decode(ref)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("unrecognized reference %q", ref))
			return
		}
		out.PaymentRequestID = id
		out.RefIssuedAt = &issued
	}

	record, err := app.pendingPayments.GetByID(r.Context(), out.PaymentRequestID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	out.Pending = record

	attempts, err := app.attempts.ListByPaymentRequest(r.Context(), out.PaymentRequestID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	out.Attempts = attempts

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
