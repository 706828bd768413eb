package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Claim(ctx, "users.create", "k1"))
	assert.ErrorIs(t, store.Claim(ctx, "users.create", "k1"), ErrIdempotencyConflict)
	assert.NoError(t, store.Claim(ctx, "users.update", "k1"))

	require.NoError(t, store.Release(ctx, "users.create", "k1"))
	assert.NoError(t, store.Claim(ctx, "users.create", "k1"))

	mr.FastForward(2 * time.Hour)
	assert.NoError(t, store.Claim(ctx, "users.create", "k1"))
}

func TestIdempotencyRequiresKeyAndScope(t *testing.T) {
	store := NewIdempotencyStore(nil, time.Hour)
	ctx := context.Background()
	assert.Error(t, store.Claim(ctx, "users.create", ""))
	assert.Error(t, store.Claim(ctx, "", "k1"))

	var nilStore *IdempotencyStore
	assert.Error(t, nilStore.Claim(ctx, "users.create", "k1"))
	assert.NoError(t, nilStore.Release(ctx, "users.create", "k1"))
}
