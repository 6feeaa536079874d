package payflow

import (
	"context"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pasal/internal/commerce"
	"pasal/internal/pending"
)

// State of a callback resolution. A callback enters pending and always
// leaves in one of the two terminal states; there are no automatic retries.
type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

// Failure reasons, forwarded to the failure page for diagnostic copy.
const (
	ReasonMalformedCallback = "malformed_callback"
	ReasonNoPendingPayment  = "no_pending_payment"
	ReasonVerifyRejected    = "verify_rejected"
	ReasonVerifyError       = "verify_error"
)

// Outcome is the terminal result of reconciling one callback.
type Outcome struct {
	State            State
	Gateway          GatewayKind
	PaymentRequestID int64
	OrderID          int64
	Reason           string
	SupportRef       string
}

// Verifier settles a payment attempt with the commerce API.
type Verifier interface {
	VerifyPayment(ctx context.Context, paymentRequestID int64, esewaTransactionID, khaltiPidx, status string) (*commerce.VerifyResult, error)
}

// AttemptLogger records callback and verification attempts for support.
// Logging is best-effort everywhere: an audit failure never changes an
// outcome.
type AttemptLogger interface {
	InsertAttempt(ctx context.Context, gateway string, paymentRequestID int64, kind string, payload any) error
}

// RefCoder issues the short support reference printed on failure pages.
type RefCoder interface {
	Encode(paymentRequestID int64) (string, error)
}

// Reconciler takes control after a payment-provider redirect: it classifies
// the gateway, correlates the callback with the pending-payment record
// written at checkout, verifies the payment with the backend, and produces
// a terminal outcome for the presentation layer to route on.
type Reconciler struct {
	verifier Verifier
	pending  pending.Store
	attempts AttemptLogger
	refs     RefCoder
	logger   *zap.SugaredLogger

	// Collapses concurrent resolutions of the same callback identity so a
	// re-mounted callback view cannot issue a second verification call
	// while one is outstanding.
	group singleflight.Group
}

func NewReconciler(verifier Verifier, pendingStore pending.Store, attempts AttemptLogger, refs RefCoder, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		pending:  pendingStore,
		attempts: attempts,
		refs:     refs,
		logger:   logger,
	}
}

// Resolve reconciles a single callback invocation. It is safe to call
// repeatedly with the same parameters: once the pending record is consumed,
// re-entry resolves deterministically to failed (nothing left to correlate)
// without another verification call.
func (r *Reconciler) Resolve(ctx context.Context, path string, query url.Values) *Outcome {
	gateway := Classify(path, query)

	if gateway == GatewayCOD {
		// No third-party redirect happened, nothing to verify.
		return &Outcome{State: StateSuccess, Gateway: GatewayCOD}
	}

	cb, err := ParseCallback(gateway, query)
	if err != nil {
		r.logger.Warnw("malformed payment callback", "gateway", gateway, "path", path, "error", err.Error())
		r.logAttempt(ctx, gateway, 0, "error", map[string]any{"stage": "parse", "error": err.Error()})
		return r.failed(gateway, 0, 0, ReasonMalformedCallback)
	}

	v, err, _ := r.group.Do(cb.correlator(), func() (any, error) {
		return r.resolveCallback(ctx, cb), nil
	})
	if err != nil {
		// Unreachable: resolveCallback never errors. Kept for the
		// singleflight contract.
		return r.failed(gateway, 0, 0, ReasonVerifyError)
	}
	return v.(*Outcome)
}

func (r *Reconciler) resolveCallback(ctx context.Context, cb *Callback) *Outcome {
	record, err := r.loadRecord(ctx, cb)
	if err != nil {
		r.logger.Errorw("pending payment lookup failed", "gateway", cb.Gateway, "error", err.Error())
		return r.failed(cb.Gateway, 0, 0, ReasonNoPendingPayment)
	}
	if record == nil {
		// Nothing to correlate against: the record was never written,
		// expired, or was already consumed by an earlier resolution.
		return r.failed(cb.Gateway, 0, 0, ReasonNoPendingPayment)
	}

	r.logAttempt(ctx, cb.Gateway, record.PaymentRequestID, "callback", cb)

	result, err := r.verifier.VerifyPayment(ctx,
		record.PaymentRequestID,
		record.EsewaTransactionID,
		record.KhaltiPidx,
		commerce.VerifyStatusCompleted,
	)
	if err != nil {
		r.logger.Errorw("payment verification failed",
			"gateway", cb.Gateway,
			"payment_request_id", record.PaymentRequestID,
			"error", err.Error(),
		)
		r.logAttempt(ctx, cb.Gateway, record.PaymentRequestID, "error", map[string]any{
			"stage": "verify",
			"error": err.Error(),
		})
		// The record stays so a retry from checkout can still reference it.
		return r.failed(cb.Gateway, record.PaymentRequestID, record.OrderID, ReasonVerifyError)
	}

	r.logAttempt(ctx, cb.Gateway, record.PaymentRequestID, "verify", result)

	if !result.Success {
		return r.failed(cb.Gateway, record.PaymentRequestID, record.OrderID, ReasonVerifyRejected)
	}

	// Terminal success: the pending record is consumed exactly once here.
	if err := r.pending.Delete(ctx, record.PaymentRequestID); err != nil {
		r.logger.Errorw("failed to clear pending payment",
			"payment_request_id", record.PaymentRequestID,
			"error", err.Error(),
		)
	}

	r.logger.Infow("payment verified",
		"gateway", cb.Gateway,
		"payment_request_id", record.PaymentRequestID,
		"order_id", record.OrderID,
	)

	return &Outcome{
		State:            StateSuccess,
		Gateway:          cb.Gateway,
		PaymentRequestID: record.PaymentRequestID,
		OrderID:          record.OrderID,
	}
}

func (r *Reconciler) loadRecord(ctx context.Context, cb *Callback) (*pending.Payment, error) {
	switch cb.Gateway {
	case GatewayEsewa:
		return r.pending.GetByEsewaRef(ctx, cb.EsewaTransactionID)
	case GatewayKhalti:
		return r.pending.GetByKhaltiPidx(ctx, cb.Pidx)
	default:
		return nil, nil
	}
}

// Cancel discards a pending payment on the user's explicit request from the
// failure page. This is the only path besides terminal success that deletes
// the record.
func (r *Reconciler) Cancel(ctx context.Context, paymentRequestID int64) error {
	r.logAttempt(ctx, "", paymentRequestID, "cancel", nil)
	return r.pending.Delete(ctx, paymentRequestID)
}

func (r *Reconciler) failed(gateway GatewayKind, paymentRequestID, orderID int64, reason string) *Outcome {
	o := &Outcome{
		State:            StateFailed,
		Gateway:          gateway,
		PaymentRequestID: paymentRequestID,
		OrderID:          orderID,
		Reason:           reason,
	}
	if r.refs != nil {
		if ref, err := r.refs.Encode(paymentRequestID); err == nil {
			o.SupportRef = ref
		}
	}
	return o
}

func (r *Reconciler) logAttempt(ctx context.Context, gateway GatewayKind, paymentRequestID int64, kind string, payload any) {
	if r.attempts == nil {
		return
	}
	_ = r.attempts.InsertAttempt(ctx, string(gateway), paymentRequestID, kind, payload)
}
