package paylog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pasal/internal/infra/dbx"
)

// Attempt is one row of the payment audit trail: a gateway callback, a
// verification result, an error, or a user cancel. The trail exists for
// support staff chasing a "paid but no order" complaint; it never feeds
// back into the reconciliation flow.
type Attempt struct {
	ID               int64           `json:"id"`
	Gateway          string          `json:"gateway"`
	PaymentRequestID int64           `json:"payment_request_id"`
	Kind             string          `json:"kind"` // callback, verify, error, cancel
	Payload          json.RawMessage `json:"payload,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) InsertAttempt(ctx context.Context, gateway string, paymentRequestID int64, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO payment_attempts (gateway, payment_request_id, kind, payload)
		VALUES ($1, $2, $3, $4)
	`, gateway, paymentRequestID, kind, raw)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}
	return nil
}

func (r *Repository) ListByPaymentRequest(ctx context.Context, paymentRequestID int64) ([]Attempt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, gateway, payment_request_id, kind, payload, created_at
		FROM payment_attempts
		WHERE payment_request_id = $1
		ORDER BY id ASC
	`, paymentRequestID)
	if err != nil {
		return nil, fmt.Errorf("list payment attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.Gateway, &a.PaymentRequestID, &a.Kind, &a.Payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
