package apiv1

import (
	"net/http"

	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type HealthGroup struct {
	redisClient *common.RedisClient
	backend     repository.BackendRepository
	routerGroup *echo.Group
}

// NewHealthGroup registers the liveness probe. Redis and backend are
// optional; local mode runs without either.
func NewHealthGroup(g *echo.Group, rdb *common.RedisClient, backend repository.BackendRepository) *HealthGroup {
	group := &HealthGroup{routerGroup: g, redisClient: rdb, backend: backend}

	g.GET("", group.HealthCheck)

	return group
}

func (h *HealthGroup) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("health check failed: redis")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	if h.backend != nil {
		if err := h.backend.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health check failed: backend")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
