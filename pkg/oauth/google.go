package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultDriveScopes grants full Drive access, required for upload, trash,
// move, and rename operations
var DefaultDriveScopes = []string{"https://www.googleapis.com/auth/drive"}

// GoogleClient handles the Drive OAuth flow: building setup URLs,
// exchanging authorization codes, and refreshing access tokens.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string
	httpClient   *http.Client
}

// NewGoogleClient creates a new Google OAuth client from config
func NewGoogleClient(cfg types.DriveConfig) *GoogleClient {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultDriveScopes
	}
	return &GoogleClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		scopes:       scopes,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns true if Google OAuth is configured
func (g *GoogleClient) IsConfigured() bool {
	return g.clientID != "" && g.clientSecret != "" && g.redirectURL != ""
}

// AuthorizeURL generates the authorization URL for a setup link. The
// correlation token rides along verbatim as the OAuth state parameter.
func (g *GoogleClient) AuthorizeURL(correlationToken string) string {
	// Request offline access to get a refresh token, and always prompt for
	// consent to ensure we get one even if the user previously authorized
	return g.oauthConfig().AuthCodeURL(correlationToken,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent select_account"),
	)
}

// Exchange exchanges an authorization code for tokens. A missing refresh
// token fails the exchange: without one the connection cannot outlive the
// first access token.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*types.DriveCredentials, error) {
	token, err := g.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange failed: %w", err)
	}

	if token.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token in exchange response")
	}

	creds := &types.DriveCredentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if !token.Expiry.IsZero() {
		creds.ExpiresAt = &token.Expiry
	}

	return creds, nil
}

// Refresh mints a new access token from a refresh token. A revoked or
// expired refresh token surfaces as ErrCredentialRejected so the caller can
// clear the stored credential.
func (g *GoogleClient) Refresh(ctx context.Context, refreshToken string) (*types.DriveCredentials, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token")
	}

	data := url.Values{
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", google.Endpoint.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isInvalidGrant(body) {
			return nil, &types.ErrCredentialRejected{Reason: "refresh token revoked or expired"}
		}
		return nil, fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	expiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	return &types.DriveCredentials{
		AccessToken:  result.AccessToken,
		RefreshToken: refreshToken, // Keep the same refresh token
		ExpiresAt:    &expiry,
	}, nil
}

// NeedsRefresh returns true if credentials are expired or about to expire
func NeedsRefresh(creds *types.DriveCredentials) bool {
	if creds == nil || creds.RefreshToken == "" {
		return false
	}
	if creds.ExpiresAt == nil {
		// No expiry recorded: the access token may be stale, refresh it
		return creds.AccessToken == ""
	}
	// Refresh if expires within 5 minutes
	return time.Until(*creds.ExpiresAt) < 5*time.Minute
}

func (g *GoogleClient) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  g.redirectURL,
		Scopes:       g.scopes,
		Endpoint:     google.Endpoint,
	}
}

// isInvalidGrant reports whether an OAuth error body names the
// invalid_grant error Google returns for revoked refresh tokens
func isInvalidGrant(body []byte) bool {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return payload.Error == "invalid_grant"
}
