package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPendingStoreRedeemIsSingleUse(t *testing.T) {
	store := NewMemoryPendingStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	token := common.GenerateCorrelationToken()
	require.NoError(t, store.Put(ctx, token, "14155550100"))

	userID, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "14155550100", userID)

	// Replaying the identical token must fail deterministically
	_, err = store.Redeem(ctx, token)
	expired := &types.ErrAuthorizationExpired{}
	assert.True(t, expired.From(err), "replay should yield ErrAuthorizationExpired, got %v", err)
}

func TestMemoryPendingStoreUnknownToken(t *testing.T) {
	store := NewMemoryPendingStore(time.Minute)
	defer store.Stop()

	_, err := store.Redeem(context.Background(), "never-issued")
	expired := &types.ErrAuthorizationExpired{}
	assert.True(t, expired.From(err))
}

func TestMemoryPendingStoreExpiry(t *testing.T) {
	store := NewMemoryPendingStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	token := common.GenerateCorrelationToken()
	require.NoError(t, store.Put(ctx, token, "14155550100"))

	// Force the entry past its deadline without waiting on the cleanup loop
	store.mu.Lock()
	entry := store.entries[token]
	entry.expiresAt = time.Now().Add(-time.Second)
	store.entries[token] = entry
	store.mu.Unlock()

	_, err := store.Redeem(ctx, token)
	expired := &types.ErrAuthorizationExpired{}
	assert.True(t, expired.From(err))

	// Expired redemption still consumes the entry
	store.mu.Lock()
	_, stillThere := store.entries[token]
	store.mu.Unlock()
	assert.False(t, stillThere)
}

func TestMemoryPendingStoreSeparateUsers(t *testing.T) {
	store := NewMemoryPendingStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	tokenA := common.GenerateCorrelationToken()
	tokenB := common.GenerateCorrelationToken()
	require.NoError(t, store.Put(ctx, tokenA, "userA"))
	require.NoError(t, store.Put(ctx, tokenB, "userB"))

	userB, err := store.Redeem(ctx, tokenB)
	require.NoError(t, err)
	assert.Equal(t, "userB", userB)

	userA, err := store.Redeem(ctx, tokenA)
	require.NoError(t, err)
	assert.Equal(t, "userA", userA)
}

func TestMemoryPendingStoreCount(t *testing.T) {
	store := NewMemoryPendingStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, common.GenerateCorrelationToken(), "userA"))
	require.NoError(t, store.Put(ctx, common.GenerateCorrelationToken(), "userB"))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func newRedisPendingStoreForTest(t *testing.T) (*RedisPendingStore, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	require.NoError(t, err)

	return NewRedisPendingStore(rdb, time.Minute), s
}

func TestRedisPendingStoreRedeemIsSingleUse(t *testing.T) {
	store, _ := newRedisPendingStoreForTest(t)
	ctx := context.Background()

	token := common.GenerateCorrelationToken()
	require.NoError(t, store.Put(ctx, token, "14155550100"))

	userID, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "14155550100", userID)

	_, err = store.Redeem(ctx, token)
	expired := &types.ErrAuthorizationExpired{}
	assert.True(t, expired.From(err), "replay should yield ErrAuthorizationExpired, got %v", err)
}

func TestRedisPendingStoreExpiry(t *testing.T) {
	store, mr := newRedisPendingStoreForTest(t)
	ctx := context.Background()

	token := common.GenerateCorrelationToken()
	require.NoError(t, store.Put(ctx, token, "14155550100"))

	mr.FastForward(2 * time.Minute)

	_, err := store.Redeem(ctx, token)
	expired := &types.ErrAuthorizationExpired{}
	assert.True(t, expired.From(err))
}

func TestRedisPendingStoreCount(t *testing.T) {
	store, _ := newRedisPendingStoreForTest(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, common.GenerateCorrelationToken(), "userA"))
	require.NoError(t, store.Put(ctx, common.GenerateCorrelationToken(), "userB"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
