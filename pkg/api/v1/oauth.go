package apiv1

import (
	"context"
	"fmt"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	errMsgSetupExpired  = "Setup timed out or flow context lost. Please restart SETUP."
	errMsgNoAuthCode    = "Missing authorization code"
	errMsgTokenExchange = "Token exchange failed"
)

// AuthorizationCompleter is the slice of the assistant the callback drives.
type AuthorizationCompleter interface {
	HandleAuthorizationCallback(ctx context.Context, correlationToken, code string) error
	DiscardAuthorization(ctx context.Context, correlationToken string)
}

// OAuthGroup serves the Google redirect that finishes the SETUP flow.
type OAuthGroup struct {
	assistant AuthorizationCompleter
}

// NewOAuthGroup creates and registers the OAuth callback route.
func NewOAuthGroup(g *echo.Group, assistant AuthorizationCompleter) *OAuthGroup {
	og := &OAuthGroup{assistant: assistant}

	g.GET("/callback", og.Callback)

	return og
}

// Callback completes the connect flow for whichever user the state token
// was issued to. The token is consumed on first sight, so reloading the
// page or replaying the URL renders the expired message instead of running
// a second exchange.
func (og *OAuthGroup) Callback(c echo.Context) error {
	state := c.QueryParam("state")
	code := c.QueryParam("code")
	errParam := c.QueryParam("error")

	if state == "" {
		return renderErrorPage(c, errMsgSetupExpired)
	}

	ctx := c.Request().Context()

	if errParam != "" {
		og.assistant.DiscardAuthorization(ctx, state)
		return renderErrorPage(c, fmt.Sprintf("Google authorization failed: %s", errParam))
	}

	if code == "" {
		og.assistant.DiscardAuthorization(ctx, state)
		return renderErrorPage(c, errMsgNoAuthCode)
	}

	if err := og.assistant.HandleAuthorizationCallback(ctx, state, code); err != nil {
		expired := &types.ErrAuthorizationExpired{}
		if expired.From(err) {
			return renderErrorPage(c, errMsgSetupExpired)
		}

		log.Error().Err(err).Msg("oauth token exchange failed")
		return renderErrorPage(c, errMsgTokenExchange)
	}

	return renderSuccessPage(c)
}
