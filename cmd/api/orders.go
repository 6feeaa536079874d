package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pasal/internal/params"
	"pasal/internal/session"
)

//	@Summary		List orders
//	@Tags			orders
//	@Produce		json
//	@Success		200	{array}	commerce.Order
//	@Security		ApiKeyAuth
//	@Router			/store/orders [get]
func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	p := params.ParsePagination(r.URL.Query())

	orders, err := app.api.Orders(r.Context(), s.UserID, p.Page, p.Limit)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Get order
//	@Tags			orders
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	commerce.Order
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/orders/{orderID} [get]
func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order id"))
		return
	}

	s := session.FromContext(r.Context())

	order, err := app.api.OrderByID(r.Context(), s.UserID, orderID)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}
	if order == nil {
		app.notFoundResponse(w, r, fmt.Errorf("order %d not found", orderID))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Latest payment
//	@Description	The user's most recent payment record, used by confirmation screens
//	@Tags			orders
//	@Produce		json
//	@Success		200	{object}	commerce.PaymentSummary
//	@Security		ApiKeyAuth
//	@Router			/store/payments/latest [get]
func (app *application) latestPaymentHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	summary, err := app.api.LatestPayment(r.Context(), s.UserID)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}
	if summary == nil {
		app.notFoundResponse(w, r, fmt.Errorf("no payments yet"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		List notifications
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{array}	commerce.Notification
//	@Security		ApiKeyAuth
//	@Router			/store/notifications [get]
func (app *application) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	notifications, err := app.api.Notifications(r.Context(), s.UserID)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, notifications); err != nil {
		app.internalServerError(w, r, err)
	}
}
