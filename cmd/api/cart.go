package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pasal/internal/session"
)

type AddCartItemPayload struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=99"`
}

type UpdateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0,lte=99"`
}

//	@Summary		View cart
//	@Tags			cart
//	@Produce		json
//	@Success		200	{object}	cart.View
//	@Security		ApiKeyAuth
//	@Router			/store/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	view, err := app.cart.View(r.Context(), s.UserID)
	if err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Add to cart
//	@Tags			cart
//	@Accept			json
//	@Param			payload	body	AddCartItemPayload	true	"Product and quantity"
//	@Success		201
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	s := session.FromContext(r.Context())

	if err := app.cart.Add(r.Context(), s.UserID, payload.ProductID, payload.Quantity); err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{"message": "added to cart"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Update cart item quantity
//	@Tags			cart
//	@Accept			json
//	@Param			itemID	path	int						true	"Cart item ID"
//	@Param			payload	body	UpdateCartItemPayload	true	"New quantity"
//	@Success		200
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items/{itemID} [patch]
func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid cart item id"))
		return
	}

	var payload UpdateCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.cart.UpdateQty(r.Context(), itemID, payload.Quantity); err != nil {
		app.upstreamError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "cart updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

//	@Summary		Remove cart item
//	@Tags			cart
//	@Param			itemID	path	int	true	"Cart item ID"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/store/cart/items/{itemID} [delete]
func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid cart item id"))
		return
	}

	if err := app.cart.Remove(r.Context(), itemID); err != nil {
		app.upstreamError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
