package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/cmd/accounts/container"
	"github.com/lyzr/accounts/cmd/accounts/handlers"
	"github.com/lyzr/accounts/cmd/accounts/middleware"
)

// RegisterAccountRoutes registers self-service account routes
func RegisterAccountRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAccountHandler(c.ErasureService, c.Components.Logger)

	account := e.Group("/api/v1/account", middleware.RequireAccount())
	{
		account.DELETE("", h.DeleteAccount) // DELETE /api/v1/account
	}
}
