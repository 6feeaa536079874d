package pending

import (
	"context"
	"time"
)

// Payment is the record written at order placement, before the browser is
// redirected to a payment provider, and consumed by the callback
// reconciler. Records are keyed by PaymentRequestID rather than a single
// well-known slot so concurrent checkouts (multiple tabs) cannot clobber
// each other; the reconciler finds the record through the gateway
// correlator carried by the callback itself.
type Payment struct {
	PaymentRequestID   int64     `json:"payment_request_id"`
	OrderID            int64     `json:"order_id"`
	UserID             int64     `json:"user_id"`
	EsewaTransactionID string    `json:"esewa_transaction_id,omitempty"`
	KhaltiPidx         string    `json:"khalti_pidx,omitempty"`
	PaymentAmount      float64   `json:"payment_amount"`
	ExpiresAt          time.Time `json:"expires_at"`
}

type Store interface {
	Put(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentRequestID int64) (*Payment, error)
	GetByEsewaRef(ctx context.Context, transactionID string) (*Payment, error)
	GetByKhaltiPidx(ctx context.Context, pidx string) (*Payment, error)
	Delete(ctx context.Context, paymentRequestID int64) error
}
