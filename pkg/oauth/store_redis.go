package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/redis/go-redis/v9"
)

// RedisPendingStore keeps pending setup links in redis so any gateway
// replica can serve the OAuth callback. Single-use redemption rides on
// GETDEL; expiry on the key TTL.
type RedisPendingStore struct {
	rdb *common.RedisClient
	ttl time.Duration
}

var _ PendingStore = (*RedisPendingStore)(nil)

// NewRedisPendingStore creates a redis-backed pending store
func NewRedisPendingStore(rdb *common.RedisClient, ttl time.Duration) *RedisPendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &RedisPendingStore{rdb: rdb, ttl: ttl}
}

func (s *RedisPendingStore) Put(ctx context.Context, token, userID string) error {
	err := s.rdb.Set(ctx, common.Keys.AuthPending(token), userID, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("store pending authorization: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) Redeem(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, common.Keys.AuthPending(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", &types.ErrAuthorizationExpired{Token: token}
	}
	if err != nil {
		return "", fmt.Errorf("redeem pending authorization: %w", err)
	}
	return userID, nil
}

func (s *RedisPendingStore) Count(ctx context.Context) (int, error) {
	count := 0
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, common.Keys.AuthPending("*"), 100).Result()
		if err != nil {
			return 0, fmt.Errorf("count pending authorizations: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Stop is a no-op; the shared redis client is owned by the gateway
func (s *RedisPendingStore) Stop() {}
