package checkout

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"pasal/internal/commerce"
	"pasal/internal/pending"
)

// API is the slice of the commerce client checkout drives.
type API interface {
	PaymentMethods(ctx context.Context) ([]commerce.PaymentMethod, error)
	PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingCity string) (*commerce.Order, error)
	CreatePaymentIntent(ctx context.Context, userID, orderID, paymentMethodID int64, description string) (*commerce.PaymentIntent, error)
}

// ShippingInput is what the user fills in before placing an order.
type ShippingInput struct {
	Address string `json:"address" validate:"required,min=5,max=200"`
	City    string `json:"city" validate:"required,min=2,max=60"`
	Phone   string `json:"phone" validate:"omitempty,nepaliphone"`
}

// Redirect plan modes. The handler renders a gateway redirect, an auto-post
// form, or sends the browser straight to the verification route.
const (
	ModeRedirect = "redirect"
	ModeForm     = "form"
	ModeVerify   = "verify"
)

// RedirectPlan tells the presentation layer how to hand the browser over
// after the pending-payment record has been written.
type RedirectPlan struct {
	Mode             string            `json:"mode"`
	PaymentURL       string            `json:"payment_url,omitempty"`
	FormFields       map[string]string `json:"form_fields,omitempty"`
	VerifyPath       string            `json:"verify_path,omitempty"`
	Instructions     string            `json:"instructions,omitempty"`
	PaymentRequestID int64             `json:"payment_request_id"`
	OrderID          int64             `json:"order_id"`
}

// Service drives the two-step checkout sequence: place order, create the
// payment intent, and record the pending payment before any redirect. The
// callback reconciler trusts that record unconditionally, so it must be
// durable before the browser leaves.
type Service struct {
	api      API
	pending  pending.Store
	validate *validator.Validate
}

func NewService(api API, pendingStore pending.Store, validate *validator.Validate) *Service {
	return &Service{api: api, pending: pendingStore, validate: validate}
}

func (s *Service) PaymentMethods(ctx context.Context) ([]commerce.PaymentMethod, error) {
	return s.api.PaymentMethods(ctx)
}

func (s *Service) PlaceOrder(ctx context.Context, userID int64, ship ShippingInput, paymentMethodID int64) (*RedirectPlan, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("a logged-in user is required to place an order")
	}
	if paymentMethodID <= 0 {
		return nil, fmt.Errorf("a payment method is required")
	}
	if err := s.validate.Struct(ship); err != nil {
		return nil, fmt.Errorf("invalid shipping details: %w", err)
	}

	order, err := s.api.PlaceOrder(ctx, userID, ship.Address, ship.City)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	if order.OrderID <= 0 {
		return nil, fmt.Errorf("order was not created")
	}

	intent, err := s.api.CreatePaymentIntent(ctx, userID, order.OrderID, paymentMethodID, "Order Payment")
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	record := &pending.Payment{
		PaymentRequestID:   intent.PaymentRequestID,
		OrderID:            order.OrderID,
		UserID:             userID,
		EsewaTransactionID: intent.EsewaTransactionID,
		KhaltiPidx:         intent.KhaltiPidx,
		PaymentAmount:      intent.PaymentAmount,
		ExpiresAt:          intent.ExpiresAt,
	}
	if err := s.pending.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}

	plan := &RedirectPlan{
		PaymentRequestID: intent.PaymentRequestID,
		OrderID:          order.OrderID,
		Instructions:     intent.Instructions,
	}

	switch {
	case intent.RequiresRedirect && len(intent.FormFields) > 0:
		// eSewa hands us form fields for an auto-post to the gateway.
		plan.Mode = ModeForm
		plan.PaymentURL = intent.PaymentURL
		plan.FormFields = intent.FormFields
	case intent.RequiresRedirect && intent.PaymentURL != "":
		plan.Mode = ModeRedirect
		plan.PaymentURL = intent.PaymentURL
	default:
		// Cash on delivery: no third-party leg, straight to verification.
		plan.Mode = ModeVerify
		plan.VerifyPath = "/payment/success"
	}

	return plan, nil
}
