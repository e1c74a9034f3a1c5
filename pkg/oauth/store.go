package oauth

import (
	"context"
	"sync"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
)

// DefaultPendingTTL is how long an unredeemed setup link stays valid.
// Losing an entry is harmless: the user simply sends SETUP again.
const DefaultPendingTTL = 10 * time.Minute

// PendingStore tracks outstanding setup links: correlation token -> user id.
// Redeem is single-use by contract. The entry is removed on lookup whether
// or not the subsequent code exchange succeeds, so a replayed callback can
// never redeem the same token twice.
type PendingStore interface {
	// Put registers a fresh correlation token for the user. Issuing a new
	// token while one is outstanding simply adds another valid entry; old
	// ones age out via TTL.
	Put(ctx context.Context, token, userID string) error

	// Redeem looks up and unconditionally removes the token, returning the
	// user id it was issued to. Unknown, expired, or already-consumed
	// tokens return ErrAuthorizationExpired.
	Redeem(ctx context.Context, token string) (string, error)

	// Count reports how many setup links are currently outstanding
	Count(ctx context.Context) (int, error)

	// Stop releases any background resources held by the store
	Stop()
}

type pendingEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryPendingStore keeps pending setup links in process memory with TTL
// cleanup. Suitable for local mode and single-replica deployments.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	ttl     time.Duration
	stopCh  chan struct{}
}

var _ PendingStore = (*MemoryPendingStore)(nil)

// NewMemoryPendingStore creates a new in-memory store with a cleanup goroutine
func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	s := &MemoryPendingStore{
		entries: make(map[string]pendingEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryPendingStore) Put(ctx context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = pendingEntry{
		userID:    userID,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryPendingStore) Redeem(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return "", &types.ErrAuthorizationExpired{Token: token}
	}
	delete(s.entries, token)

	if time.Now().After(entry.expiresAt) {
		return "", &types.ErrAuthorizationExpired{Token: token}
	}
	return entry.userID, nil
}

func (s *MemoryPendingStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for _, entry := range s.entries {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}

// Stop stops the cleanup goroutine
func (s *MemoryPendingStore) Stop() {
	close(s.stopCh)
}

func (s *MemoryPendingStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryPendingStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}
