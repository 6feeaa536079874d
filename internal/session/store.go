package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions server-side, keyed by the opaque session id that
// travels in the browser cookie.
type Store interface {
	Get(ctx context.Context, sid string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Clear(ctx context.Context, sid string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(sid string) string {
	return "session:" + sid
}

// Get returns nil, nil when no session exists for the id.
func (r *RedisStore) Get(ctx context.Context, sid string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(sid)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context, sid string) error {
	return r.client.Del(ctx, r.key(sid)).Err()
}
