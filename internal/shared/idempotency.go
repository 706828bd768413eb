package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyHeader carries the client supplied key on JSON writes.
const IdempotencyHeader = "Idempotency-Key"

// ErrIdempotencyConflict indicates the key was already claimed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore remembers claimed request keys in Redis for a retention window.
type IdempotencyStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(client redis.UniversalClient, retention time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, retention: retention}
}

// Claim records key for scope and fails with ErrIdempotencyConflict when it was seen before.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if scope == "" {
		return errors.New("idempotency scope required")
	}
	ok, err := s.client.SetNX(ctx, idempotencyKey(scope, key), time.Now().UTC().Format(time.RFC3339), s.retention).Result()
	if err != nil {
		return fmt.Errorf("shared: claim idempotency key: %w", err)
	}
	if !ok {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release forgets a key, typically after the guarded request failed.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if s == nil || key == "" {
		return nil
	}
	if err := s.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("shared: release idempotency key: %w", err)
	}
	return nil
}

func idempotencyKey(scope, key string) string {
	return "roster:idempotency:" + scope + ":" + key
}
