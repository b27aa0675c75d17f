package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/accounts/common/config"
	"github.com/lyzr/accounts/common/db"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
	"github.com/lyzr/accounts/common/sqlite"
	"github.com/lyzr/accounts/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config *config.Config
	Logger *logger.Logger

	// Store is whichever backend DB_DRIVER selected; DB or SQLite is also set
	Store  erasure.Store
	DB     *db.DB
	SQLite *sqlite.Store

	Telemetry *telemetry.Telemetry

	// Internal
	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components
// Should be called with defer after Setup()
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// Run cleanup functions in reverse order (LIFO)
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks health of all components
func (c *Components) Health(ctx context.Context) error {
	if c.Store != nil {
		if err := c.Store.Health(ctx); err != nil {
			return fmt.Errorf("database unhealthy: %w", err)
		}
	}

	return nil
}

// addCleanup registers a cleanup function
func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}
