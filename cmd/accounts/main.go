package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/accounts/cmd/accounts/container"
	accountsmw "github.com/lyzr/accounts/cmd/accounts/middleware"
	"github.com/lyzr/accounts/cmd/accounts/routes"
	"github.com/lyzr/accounts/common/bootstrap"
	"github.com/lyzr/accounts/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (store, logger, telemetry)
	components, err := bootstrap.Setup(ctx, "accounts")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap accounts: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		components.Logger.Error("Failed to initialize service container", "error", err)
		components.Shutdown(ctx)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	e := setupEcho()
	setupMiddleware(e)
	registerRoutes(e, serviceContainer)

	srv := server.New("accounts", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		serviceContainer.Close()
		components.Shutdown(ctx)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(accountsmw.RequestContext())
	e.Use(middleware.Logger())
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterHealthRoutes(e, serviceContainer)
	routes.RegisterAccountRoutes(e, serviceContainer)
	routes.RegisterAdminRoutes(e, serviceContainer)
}
