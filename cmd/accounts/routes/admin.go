package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/cmd/accounts/container"
	"github.com/lyzr/accounts/cmd/accounts/handlers"
	commonmw "github.com/lyzr/accounts/common/middleware"
)

// RegisterAdminRoutes registers operator routes. Purge attempts are rate
// limited per client when Redis is available.
func RegisterAdminRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAdminHandler(c.ErasureService, c.Components.Logger)
	cfg := c.Components.Config

	admin := e.Group("/api/v1/admin")

	var mws []echo.MiddlewareFunc
	if c.RateLimiter != nil {
		mws = append(mws, commonmw.PurgeRateLimitMiddleware(
			c.RateLimiter,
			cfg.Erasure.PurgeRateLimit,
			cfg.Erasure.PurgeRateWindow,
			c.Components.Logger,
		))
	}

	admin.POST("/purge-by-email", h.PurgeByEmail, mws...) // POST /api/v1/admin/purge-by-email
}
