package assistant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const credentialCacheTTL = 5 * time.Minute

type cachedCredential struct {
	creds     *types.DriveCredentials
	expiresAt time.Time
}

// CredentialManager resolves a user's Drive access token from the connection
// store, refreshing expired tokens through the OAuth client and caching the
// result in-process so a burst of commands does not hammer the store.
type CredentialManager struct {
	backend repository.ConnectionRepository
	client  OAuthClient

	credCache sync.Map // userID -> *cachedCredential
	group     singleflight.Group
}

func NewCredentialManager(backend repository.ConnectionRepository, client OAuthClient) *CredentialManager {
	return &CredentialManager{
		backend: backend,
		client:  client,
	}
}

// AccessToken returns a usable access token for userID. Concurrent calls for
// the same user collapse into a single load, so at most one refresh is in
// flight per user at a time. A user with no connection on file gets
// ErrNotConnected; a revoked refresh token gets ErrCredentialRejected.
func (m *CredentialManager) AccessToken(ctx context.Context, userID string) (string, error) {
	if cached, ok := m.credCache.Load(userID); ok {
		entry := cached.(*cachedCredential)
		if time.Now().Before(entry.expiresAt) && !oauth.NeedsRefresh(entry.creds) {
			return entry.creds.AccessToken, nil
		}
		m.credCache.Delete(userID)
	}

	result, err, _ := m.group.Do(userID, func() (any, error) {
		return m.loadCredentials(ctx, userID)
	})
	if err != nil {
		return "", err
	}

	return result.(*types.DriveCredentials).AccessToken, nil
}

func (m *CredentialManager) loadCredentials(ctx context.Context, userID string) (*types.DriveCredentials, error) {
	conn, err := m.backend.GetConnection(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("connection lookup failed: %w", err)
	}
	if conn == nil {
		return nil, &types.ErrNotConnected{UserId: userID}
	}

	creds, err := repository.DecodeCredentials(conn)
	if err != nil {
		return nil, fmt.Errorf("credential decode failed: %w", err)
	}

	if oauth.NeedsRefresh(creds) {
		refreshed, err := m.client.Refresh(ctx, creds.RefreshToken)
		if err != nil {
			rejected := &types.ErrCredentialRejected{}
			if rejected.From(err) {
				return nil, &types.ErrCredentialRejected{UserId: userID, Reason: rejected.Reason}
			}
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}

		// Save the refreshed credentials back to the store
		if _, err := m.backend.SaveConnection(ctx, userID, refreshed); err != nil {
			log.Warn().Str("user_id", userID).Err(err).Msg("failed to persist refreshed credentials")
		}

		creds = refreshed
	}

	m.credCache.Store(userID, &cachedCredential{
		creds:     creds,
		expiresAt: time.Now().Add(credentialCacheTTL),
	})
	return creds, nil
}

// Save persists a credential obtained from a code exchange and primes the cache
func (m *CredentialManager) Save(ctx context.Context, userID string, creds *types.DriveCredentials) error {
	if _, err := m.backend.SaveConnection(ctx, userID, creds); err != nil {
		return fmt.Errorf("save connection failed: %w", err)
	}

	m.credCache.Store(userID, &cachedCredential{
		creds:     creds,
		expiresAt: time.Now().Add(credentialCacheTTL),
	})
	return nil
}

// Clear removes the user's credential from the cache and the store. Called
// when the Drive API rejects the stored token; the user must reconnect.
func (m *CredentialManager) Clear(ctx context.Context, userID string) error {
	m.credCache.Delete(userID)
	m.group.Forget(userID)

	if err := m.backend.DeleteConnection(ctx, userID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete connection failed: %w", err)
	}
	return nil
}
