package common

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// RedisLockOptions controls lock TTL and acquisition retries
type RedisLockOptions struct {
	TtlS    int
	Retries int
}

// RedisLock provides distributed locks over the shared redis client. Held
// locks are tracked by key so Release can be called without the lock handle.
type RedisLock struct {
	client *RedisClient
	locks  map[string]*redislock.Lock
	mu     sync.Mutex
}

func NewRedisLock(rdb *RedisClient) *RedisLock {
	return &RedisLock{
		client: rdb,
		locks:  make(map[string]*redislock.Lock),
	}
}

// Acquire obtains the lock for key, retrying with linear backoff when
// configured. The lock expires after TtlS seconds if not released.
func (l *RedisLock) Acquire(ctx context.Context, key string, opts RedisLockOptions) error {
	var retryStrategy redislock.RetryStrategy = redislock.NoRetry()
	if opts.Retries > 0 {
		retryStrategy = redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), opts.Retries)
	}

	lock, err := redislock.Obtain(ctx, l.client, key, time.Duration(opts.TtlS)*time.Second, &redislock.Options{
		RetryStrategy: retryStrategy,
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.locks[key] = lock
	l.mu.Unlock()

	return nil
}

// Release frees the lock for key if this process holds it
func (l *RedisLock) Release(key string) error {
	l.mu.Lock()
	lock, ok := l.locks[key]
	delete(l.locks, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return lock.Release(context.Background())
}
