package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/accounts/common/config"
	"github.com/lyzr/accounts/common/db"
	"github.com/lyzr/accounts/common/logger"
	"github.com/lyzr/accounts/common/sqlite"
	"github.com/lyzr/accounts/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
		"db_driver", components.Config.Database.Driver,
	)

	// 3. Initialize the relational store (if not skipped)
	if !options.skipDB {
		if err := components.openStore(ctx); err != nil {
			return nil, err
		}

		if options.storeInitHook != nil {
			components.Logger.Info("running store init hook")
			if err := options.storeInitHook(components.Store); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("store init hook failed: %w", err)
			}
		}
	}

	// 4. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
		} else {
			components.addCleanup(func() error {
				return components.Telemetry.Stop(context.Background())
			})
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"store", components.Store != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// openStore connects the backend selected by DB_DRIVER
func (c *Components) openStore(ctx context.Context) error {
	switch c.Config.Database.Driver {
	case "postgres":
		c.Logger.Info("connecting to database")
		pg, err := db.New(ctx, c.Config, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = pg
		c.Store = pg
		c.addCleanup(func() error {
			pg.Close()
			return nil
		})

	case "sqlite":
		c.Logger.Info("opening sqlite database", "path", c.Config.Database.SQLitePath)
		lite, err := sqlite.Open(ctx, c.Config.Database.SQLitePath, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		c.SQLite = lite
		c.Store = lite
		c.addCleanup(lite.Close)

	default:
		return fmt.Errorf("unknown database driver: %s", c.Config.Database.Driver)
	}

	return nil
}

// MustSetup is like Setup but panics on error
// Useful for services that can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
