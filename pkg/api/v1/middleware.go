package apiv1

import (
	"net/http"
	"strings"

	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebhookAuthConfig controls access to the inbound message webhook.
type WebhookAuthConfig struct {
	AuthToken string
	Tokens    repository.WebhookTokenRepository
}

// NewWebhookAuthMiddleware validates the transport's bearer token against
// the configured gateway token or a provisioned webhook token. With neither
// source available the webhook is open; that is the local-mode default.
func NewWebhookAuthMiddleware(cfg WebhookAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.AuthToken == "" && cfg.Tokens == nil {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return ErrorResponse(c, http.StatusUnauthorized, "authorization required")
			}

			if cfg.AuthToken != "" && token == cfg.AuthToken {
				return next(c)
			}

			if cfg.Tokens != nil {
				wt, err := cfg.Tokens.AuthorizeWebhookToken(c.Request().Context(), token)
				if err == nil {
					log.Debug().Str("token_name", wt.Name).Msg("webhook token accepted")
					return next(c)
				}
			}

			return ErrorResponse(c, http.StatusUnauthorized, "invalid token")
		}
	}
}
