package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pasal/internal/checkout"
	"pasal/internal/session"
)

type CheckoutPayload struct {
	Address         string `json:"address"`
	City            string `json:"city"`
	Phone           string `json:"phone"`
	PaymentMethodID int64  `json:"payment_method_id" validate:"required,gt=0"`
}

//	@Summary		List payment methods
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{array}	commerce.PaymentMethod
//	@Security		ApiKeyAuth
//	@Router			/store/checkout/methods [get]
func (app *application) paymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := app.checkout.PaymentMethods(r.Context())
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, methods); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Checkout
//	@Description	Places the order, creates the payment intent, records the pending payment and hands the browser to the gateway
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckoutPayload	true	"Shipping details and payment method"
//	@Success		200		{object}	checkout.RedirectPlan
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/checkout [post]
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var payload CheckoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s := session.FromContext(r.Context())

	plan, err := app.checkout.PlaceOrder(ctx, s.UserID, checkout.ShippingInput{
		Address: payload.Address,
		City:    payload.City,
		Phone:   payload.Phone,
	}, payload.PaymentMethodID)
	if err != nil {
		app.metrics.CheckoutsTotal.WithLabelValues("error").Inc()

		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.upstreamError(w, r, err)
		return
	}

	app.metrics.CheckoutsTotal.WithLabelValues("success").Inc()

	// Fetch-style clients get the plan as JSON and navigate themselves;
	// plain form posts get the gateway handoff directly.
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		if err := app.jsonResponse(w, http.StatusOK, plan); err != nil {
			app.internalServerError(w, r, err)
		}
		return
	}

	switch plan.Mode {
	case checkout.ModeForm:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store, max-age=0")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.WriteHeader(http.StatusOK)
		_ = renderAutoPostForm(w, plan.PaymentURL, plan.FormFields)
	case checkout.ModeRedirect:
		http.Redirect(w, r, plan.PaymentURL, http.StatusSeeOther)
	default:
		http.Redirect(w, r, plan.VerifyPath, http.StatusSeeOther)
	}
}
