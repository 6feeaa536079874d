package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending payments in Redis with a TTL bound to the
// record's expiry, so an expired record simply reads as absent and the
// reconciler treats it like a missing record.
type RedisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

func NewRedisStore(client *redis.Client, defaultTTL time.Duration) *RedisStore {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &RedisStore{client: client, defaultTTL: defaultTTL}
}

func paymentKey(id int64) string {
	return "pending:payment:" + strconv.FormatInt(id, 10)
}

func esewaRefKey(ref string) string {
	return "pending:ref:esewa:" + ref
}

func khaltiRefKey(pidx string) string {
	return "pending:ref:khalti:" + pidx
}

func (r *RedisStore) ttl(p *Payment) time.Duration {
	if p.ExpiresAt.IsZero() {
		return r.defaultTTL
	}
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

func (r *RedisStore) Put(ctx context.Context, p *Payment) error {
	if p.PaymentRequestID <= 0 {
		return fmt.Errorf("payment_request_id is required")
	}
	ttl := r.ttl(p)
	if ttl == 0 {
		return fmt.Errorf("pending payment %d already expired at %s", p.PaymentRequestID, p.ExpiresAt)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending payment: %w", err)
	}

	id := strconv.FormatInt(p.PaymentRequestID, 10)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, paymentKey(p.PaymentRequestID), data, ttl)
		if p.EsewaTransactionID != "" {
			pipe.Set(ctx, esewaRefKey(p.EsewaTransactionID), id, ttl)
		}
		if p.KhaltiPidx != "" {
			pipe.Set(ctx, khaltiRefKey(p.KhaltiPidx), id, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store pending payment: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no record exists (or it expired).
func (r *RedisStore) GetByID(ctx context.Context, paymentRequestID int64) (*Payment, error) {
	data, err := r.client.Get(ctx, paymentKey(paymentRequestID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending payment: %w", err)
	}

	var p Payment
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode pending payment: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) getByRef(ctx context.Context, refKey string) (*Payment, error) {
	idStr, err := r.client.Get(ctx, refKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve pending ref: %w", err)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt pending ref %q: %w", idStr, err)
	}
	return r.GetByID(ctx, id)
}

func (r *RedisStore) GetByEsewaRef(ctx context.Context, transactionID string) (*Payment, error) {
	return r.getByRef(ctx, esewaRefKey(transactionID))
}

func (r *RedisStore) GetByKhaltiPidx(ctx context.Context, pidx string) (*Payment, error) {
	return r.getByRef(ctx, khaltiRefKey(pidx))
}

// Delete removes the record and its correlator aliases. Deleting an absent
// record is not an error, which keeps the operation idempotent.
func (r *RedisStore) Delete(ctx context.Context, paymentRequestID int64) error {
	p, err := r.GetByID(ctx, paymentRequestID)
	if err != nil {
		return err
	}

	keys := []string{paymentKey(paymentRequestID)}
	if p != nil {
		if p.EsewaTransactionID != "" {
			keys = append(keys, esewaRefKey(p.EsewaTransactionID))
		}
		if p.KhaltiPidx != "" {
			keys = append(keys, khaltiRefKey(p.KhaltiPidx))
		}
	}
	return r.client.Del(ctx, keys...).Err()
}
