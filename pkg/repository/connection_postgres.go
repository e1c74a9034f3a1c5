package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/beam-cloud/satchel/pkg/types"
)

func (b *PostgresBackend) SaveConnection(ctx context.Context, userId string, creds *types.DriveCredentials) (*types.DriveConnection, error) {
	credBytes, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	query := `
		INSERT INTO drive_connection (user_id, credentials)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET credentials = EXCLUDED.credentials, updated_at = CURRENT_TIMESTAMP
		RETURNING id, external_id, user_id, credentials, created_at, updated_at
	`

	var c types.DriveConnection
	err = b.db.QueryRowContext(ctx, query, userId, credBytes).Scan(
		&c.Id, &c.ExternalId, &c.UserId, &c.Credentials, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}
	return &c, nil
}

func (b *PostgresBackend) GetConnection(ctx context.Context, userId string) (*types.DriveConnection, error) {
	query := `
		SELECT id, external_id, user_id, credentials, created_at, updated_at
		FROM drive_connection WHERE user_id = $1
	`

	var c types.DriveConnection
	err := b.db.QueryRowContext(ctx, query, userId).Scan(
		&c.Id, &c.ExternalId, &c.UserId, &c.Credentials, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &c, nil
}

func (b *PostgresBackend) DeleteConnection(ctx context.Context, userId string) error {
	query := `DELETE FROM drive_connection WHERE user_id = $1`
	result, err := b.db.ExecContext(ctx, query, userId)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (b *PostgresBackend) ListConnections(ctx context.Context) ([]types.DriveConnection, error) {
	query := `
		SELECT id, external_id, user_id, credentials, created_at, updated_at
		FROM drive_connection ORDER BY created_at DESC
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []types.DriveConnection
	for rows.Next() {
		var c types.DriveConnection
		if err := rows.Scan(&c.Id, &c.ExternalId, &c.UserId, &c.Credentials, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// DecodeCredentials parses the stored credential blob from a connection
func DecodeCredentials(conn *types.DriveConnection) (*types.DriveCredentials, error) {
	var creds types.DriveCredentials
	if err := json.Unmarshal(conn.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &creds, nil
}
