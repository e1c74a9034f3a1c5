package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
	"golang.org/x/crypto/bcrypt"
)

// generateToken creates a cryptographically secure random token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (b *PostgresBackend) CreateWebhookToken(ctx context.Context, name string) (*types.WebhookToken, string, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash token: %w", err)
	}

	query := `
		INSERT INTO webhook_token (token_hash, name)
		VALUES ($1, $2)
		RETURNING id, external_id, token_hash, name, created_at, last_used_at
	`

	var t types.WebhookToken
	err = b.db.QueryRowContext(ctx, query, string(hash), name).Scan(
		&t.Id, &t.ExternalId, &t.TokenHash, &t.Name, &t.CreatedAt, &t.LastUsedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("create webhook token: %w", err)
	}
	return &t, raw, nil
}

// AuthorizeWebhookToken validates a raw token against every stored hash.
// The table stays small (one token per transport deployment) so the scan
// is acceptable.
func (b *PostgresBackend) AuthorizeWebhookToken(ctx context.Context, rawToken string) (*types.WebhookToken, error) {
	query := `
		SELECT id, external_id, token_hash, name, created_at, last_used_at
		FROM webhook_token
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query webhook tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t types.WebhookToken
		if err := rows.Scan(&t.Id, &t.ExternalId, &t.TokenHash, &t.Name, &t.CreatedAt, &t.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan webhook token: %w", err)
		}

		if bcrypt.CompareHashAndPassword([]byte(t.TokenHash), []byte(rawToken)) != nil {
			continue
		}

		go func(id uint) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			b.db.ExecContext(ctx, `UPDATE webhook_token SET last_used_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
		}(t.Id)

		return &t, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook tokens: %w", err)
	}

	return nil, fmt.Errorf("invalid token")
}

func (b *PostgresBackend) ListWebhookTokens(ctx context.Context) ([]types.WebhookToken, error) {
	query := `
		SELECT id, external_id, token_hash, name, created_at, last_used_at
		FROM webhook_token ORDER BY created_at DESC
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list webhook tokens: %w", err)
	}
	defer rows.Close()

	var tokens []types.WebhookToken
	for rows.Next() {
		var t types.WebhookToken
		if err := rows.Scan(&t.Id, &t.ExternalId, &t.TokenHash, &t.Name, &t.CreatedAt, &t.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan webhook token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (b *PostgresBackend) RevokeWebhookToken(ctx context.Context, externalId string) error {
	query := `DELETE FROM webhook_token WHERE external_id = $1`
	result, err := b.db.ExecContext(ctx, query, externalId)
	if err != nil {
		return fmt.Errorf("revoke webhook token: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
