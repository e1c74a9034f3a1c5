package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// newExternalId mirrors the uuid_generate_v4() default used by Postgres
func newExternalId() string {
	return uuid.NewString()
}

// MemoryBackend implements BackendRepository using in-memory storage.
// This is used for local mode where we don't have Postgres.
type MemoryBackend struct {
	mu          sync.RWMutex
	connections map[string]*types.DriveConnection
	tokens      map[string]*types.WebhookToken
	nextId      uint
}

var _ BackendRepository = (*MemoryBackend)(nil)

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		connections: make(map[string]*types.DriveConnection),
		tokens:      make(map[string]*types.WebhookToken),
		nextId:      1,
	}
}

func (b *MemoryBackend) SaveConnection(ctx context.Context, userId string, creds *types.DriveCredentials) (*types.DriveConnection, error) {
	credBytes, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if existing, ok := b.connections[userId]; ok {
		existing.Credentials = credBytes
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}

	conn := &types.DriveConnection{
		Id:          b.nextId,
		ExternalId:  newExternalId(),
		UserId:      userId,
		Credentials: credBytes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.nextId++
	b.connections[userId] = conn

	out := *conn
	return &out, nil
}

func (b *MemoryBackend) GetConnection(ctx context.Context, userId string) (*types.DriveConnection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conn, ok := b.connections[userId]
	if !ok {
		return nil, nil
	}
	out := *conn
	return &out, nil
}

func (b *MemoryBackend) DeleteConnection(ctx context.Context, userId string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.connections[userId]; !ok {
		return sql.ErrNoRows
	}
	delete(b.connections, userId)
	return nil
}

func (b *MemoryBackend) ListConnections(ctx context.Context) ([]types.DriveConnection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	conns := make([]types.DriveConnection, 0, len(b.connections))
	for _, conn := range b.connections {
		conns = append(conns, *conn)
	}
	return conns, nil
}

func (b *MemoryBackend) CreateWebhookToken(ctx context.Context, name string) (*types.WebhookToken, string, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash token: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	token := &types.WebhookToken{
		Id:         b.nextId,
		ExternalId: newExternalId(),
		TokenHash:  string(hash),
		Name:       name,
		CreatedAt:  time.Now(),
	}
	b.nextId++
	b.tokens[token.ExternalId] = token

	out := *token
	return &out, raw, nil
}

func (b *MemoryBackend) AuthorizeWebhookToken(ctx context.Context, rawToken string) (*types.WebhookToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, token := range b.tokens {
		if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(rawToken)) != nil {
			continue
		}
		now := time.Now()
		token.LastUsedAt = &now

		out := *token
		return &out, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func (b *MemoryBackend) ListWebhookTokens(ctx context.Context) ([]types.WebhookToken, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tokens := make([]types.WebhookToken, 0, len(b.tokens))
	for _, token := range b.tokens {
		tokens = append(tokens, *token)
	}
	return tokens, nil
}

func (b *MemoryBackend) RevokeWebhookToken(ctx context.Context, externalId string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tokens[externalId]; !ok {
		return sql.ErrNoRows
	}
	delete(b.tokens, externalId)
	return nil
}

// DB returns nil; there is no SQL database in local mode
func (b *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

func (b *MemoryBackend) RunMigrations() error {
	return nil
}
