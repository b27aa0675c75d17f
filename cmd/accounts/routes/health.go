package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/cmd/accounts/container"
	"github.com/lyzr/accounts/cmd/accounts/handlers"
)

// RegisterHealthRoutes registers the health check endpoint
func RegisterHealthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewHealthHandler(c.Components)
	e.GET("/health", h.Health)
}
