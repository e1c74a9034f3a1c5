package admin

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/labstack/echo/v4"
)

// APIGroup handles admin API routes
type APIGroup struct {
	backend repository.BackendRepository
	pending oauth.PendingStore
}

// NewAPIGroup creates and registers all API routes
func NewAPIGroup(g *echo.Group, backend repository.BackendRepository, pending oauth.PendingStore) *APIGroup {
	api := &APIGroup{backend: backend, pending: pending}

	g.GET("/session", api.GetCurrentSession)

	// Connections
	g.GET("/connections", api.ListConnections)
	g.DELETE("/connections/:userId", api.DeleteConnection)

	// Gateway status
	g.GET("/status", api.GetStatus)

	return api
}

// GetCurrentSession returns the logged-in operator info
func (a *APIGroup) GetCurrentSession(c echo.Context) error {
	session := c.Get("session").(*Claims)
	return c.JSON(http.StatusOK, map[string]any{
		"subject":    session.Subject,
		"expires_at": session.ExpiresAt,
	})
}

// --- Connections ---

// ListConnections returns every stored Drive connection. Credential blobs
// never serialize; the row type excludes them from JSON.
func (a *APIGroup) ListConnections(c echo.Context) error {
	connections, err := a.backend.ListConnections(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, connections)
}

// DeleteConnection disconnects a user's Drive. The user has to run SETUP
// again afterwards.
func (a *APIGroup) DeleteConnection(c echo.Context) error {
	userID := c.Param("userId")

	if err := a.backend.DeleteConnection(c.Request().Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "connection not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Status ---

type statusResponse struct {
	Backend               string `json:"backend"`
	Connections           int    `json:"connections"`
	PendingAuthorizations int    `json:"pending_authorizations"`
}

// GetStatus reports backend health and flow counters
func (a *APIGroup) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	status := statusResponse{Backend: "ok"}
	if err := a.backend.Ping(ctx); err != nil {
		status.Backend = err.Error()
	}

	if connections, err := a.backend.ListConnections(ctx); err == nil {
		status.Connections = len(connections)
	}

	if a.pending != nil {
		if pending, err := a.pending.Count(ctx); err == nil {
			status.PendingAuthorizations = pending
		}
	}

	return c.JSON(http.StatusOK, status)
}
