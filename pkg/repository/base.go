package repository

import (
	"context"

	"github.com/beam-cloud/satchel/pkg/types"
)

// ConnectionRepository manages Drive connections keyed by canonical user id
type ConnectionRepository interface {
	// SaveConnection inserts or replaces the credential blob for a user
	SaveConnection(ctx context.Context, userId string, creds *types.DriveCredentials) (*types.DriveConnection, error)

	// GetConnection returns the stored connection, or (nil, nil) when the
	// user has never connected
	GetConnection(ctx context.Context, userId string) (*types.DriveConnection, error)

	// DeleteConnection removes the stored credential. Deleting a missing
	// connection returns sql.ErrNoRows
	DeleteConnection(ctx context.Context, userId string) error

	ListConnections(ctx context.Context) ([]types.DriveConnection, error)
}

// WebhookTokenRepository manages inbound webhook authentication tokens
type WebhookTokenRepository interface {
	// CreateWebhookToken mints a new token and returns the raw secret once
	CreateWebhookToken(ctx context.Context, name string) (*types.WebhookToken, string, error)
	ListWebhookTokens(ctx context.Context) ([]types.WebhookToken, error)
	RevokeWebhookToken(ctx context.Context, externalId string) error

	// AuthorizeWebhookToken validates a raw token against stored hashes
	AuthorizeWebhookToken(ctx context.Context, rawToken string) (*types.WebhookToken, error)
}

// BackendRepository is the persistent store behind the gateway. Postgres
// backs remote mode; an in-memory implementation backs local mode.
type BackendRepository interface {
	ConnectionRepository
	WebhookTokenRepository

	// Utilities
	Ping(ctx context.Context) error
	Close() error
	RunMigrations() error
}
