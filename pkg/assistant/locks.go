package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/beam-cloud/satchel/pkg/common"
)

const (
	sessionLockTtlS    = 10
	sessionLockRetries = 10
)

// UserLocker serializes credential and pending-state writes for a single
// user. The lock must never be held across an external network call; the
// code exchange and all Drive API calls happen outside the critical section.
type UserLocker interface {
	Lock(ctx context.Context, userID string) error
	Unlock(userID string) error
}

// MemoryUserLocker keys mutexes by user id. Used in local mode and
// single-replica deployments.
type MemoryUserLocker struct {
	locks sync.Map // userID -> *sync.Mutex
}

var _ UserLocker = (*MemoryUserLocker)(nil)

func NewMemoryUserLocker() *MemoryUserLocker {
	return &MemoryUserLocker{}
}

func (l *MemoryUserLocker) Lock(ctx context.Context, userID string) error {
	mu, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return nil
}

func (l *MemoryUserLocker) Unlock(userID string) error {
	mu, ok := l.locks.Load(userID)
	if !ok {
		return fmt.Errorf("no lock held for user: %s", userID)
	}
	mu.(*sync.Mutex).Unlock()
	return nil
}

// RedisUserLocker takes a distributed lock so multiple gateway replicas can
// share the credential store without tearing each other's writes
type RedisUserLocker struct {
	lock *common.RedisLock
}

var _ UserLocker = (*RedisUserLocker)(nil)

func NewRedisUserLocker(rdb *common.RedisClient) *RedisUserLocker {
	return &RedisUserLocker{lock: common.NewRedisLock(rdb)}
}

func (l *RedisUserLocker) Lock(ctx context.Context, userID string) error {
	return l.lock.Acquire(ctx, common.Keys.SessionLock(userID), common.RedisLockOptions{
		TtlS:    sessionLockTtlS,
		Retries: sessionLockRetries,
	})
}

func (l *RedisUserLocker) Unlock(userID string) error {
	return l.lock.Release(common.Keys.SessionLock(userID))
}
