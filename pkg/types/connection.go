package types

import "time"

// DriveConnection stores a user's Drive credential blob, keyed by the
// canonical user id. Credentials is the serialized DriveCredentials.
type DriveConnection struct {
	Id          uint      `db:"id" json:"id"`
	ExternalId  string    `db:"external_id" json:"external_id"`
	UserId      string    `db:"user_id" json:"user_id"`
	Credentials []byte    `db:"credentials" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DriveCredentials is the decoded credential used to call the Drive API.
// The refresh token is the long-lived artifact; access tokens are minted
// from it and cached in-process only.
type DriveCredentials struct {
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// WebhookToken authenticates inbound transport webhooks. Only the bcrypt
// hash is stored; the raw token is shown once at creation.
type WebhookToken struct {
	Id         uint       `db:"id" json:"id"`
	ExternalId string     `db:"external_id" json:"external_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	Name       string     `db:"name" json:"name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
}
