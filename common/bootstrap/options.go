package bootstrap

import (
	"github.com/lyzr/accounts/common/config"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB        bool
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	storeInitHook func(erasure.Store) error
}

// WithoutDB skips store initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithStoreInitHook runs a custom function after the store is opened
// Useful for creating a local schema or seeding data
func WithStoreInitHook(hook func(erasure.Store) error) Option {
	return func(o *options) {
		o.storeInitHook = hook
	}
}

func defaultOptions() *options {
	return &options{}
}
