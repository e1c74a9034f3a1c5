package admin

import (
	"net/http"

	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Service is the operator console: token login issuing a JWT session
// cookie, and a read-mostly API over connections and gateway status.
type Service struct {
	config    types.AdminConfig
	authToken string
	backend   repository.BackendRepository
	pending   oauth.PendingStore
	session   *SessionManager
}

// NewService creates the admin service. authToken is the gateway admin
// token; login is disabled while it is unset.
func NewService(cfg types.AdminConfig, authToken string, backend repository.BackendRepository, pending oauth.PendingStore) *Service {
	return &Service{
		config:    cfg,
		authToken: authToken,
		backend:   backend,
		pending:   pending,
		session:   NewSessionManager(cfg.SessionKey),
	}
}

// RegisterRoutes mounts the console under /admin
func (s *Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin")

	g.POST("/login", s.HandleLogin)
	g.POST("/logout", s.HandleLogout)

	api := g.Group("/api", s.requireSession)
	NewAPIGroup(api, s.backend, s.pending)
}

type loginRequest struct {
	Token string `json:"token"`
}

// HandleLogin exchanges the admin token for a session cookie
func (s *Service) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	if s.authToken == "" {
		return echo.NewHTTPError(http.StatusForbidden, "admin login disabled: no auth token configured")
	}
	if req.Token != s.authToken {
		log.Warn().Str("remote", c.RealIP()).Msg("admin login rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sessionToken, err := s.session.Create("operator")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	s.session.Set(c, sessionToken)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLogout clears the session cookie
func (s *Service) HandleLogout(c echo.Context) error {
	s.session.Clear(c)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := s.session.Get(c)
		if claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "session required")
		}
		c.Set("session", claims)
		return next(c)
	}
}
