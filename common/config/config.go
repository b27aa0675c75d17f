package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lyzr/accounts/common/erasure"
)

// Config holds all service configuration
type Config struct {
	Service      ServiceConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Erasure      ErasureConfig
	Billing      BillingConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds relational store settings
type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite"
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	SQLitePath  string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ErasureConfig holds the account-erasure conventions and operator gate
type ErasureConfig struct {
	RootTable   string
	RootKey     string
	OwnerColumn string
	EmailColumn string
	NameColumn  string
	TouchColumn string

	// AccountIDFormat is "uuid" or "opaque"
	AccountIDFormat string

	// PurgeSecret gates the operator purge-by-email path; empty disables it
	PurgeSecret     string
	PurgeRateLimit  int64
	PurgeRateWindow int // seconds
}

// BillingConfig holds the billing provider endpoint
type BillingConfig struct {
	BaseURL string // empty disables subscription cancellation
	APIKey  string
	Timeout time.Duration
}

// NotificationConfig holds the farewell outbox and the account event channel
type NotificationConfig struct {
	FarewellStream string
	EventsChannel  string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	defaults := erasure.DefaultSchema()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", "postgres"),
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "accounts"),
			User:        getEnv("POSTGRES_USER", "accounts"),
			Password:    getEnv("POSTGRES_PASSWORD", "accounts"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			SQLitePath:  getEnv("SQLITE_PATH", "accounts.db"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Erasure: ErasureConfig{
			RootTable:       getEnv("ERASURE_ROOT_TABLE", defaults.RootTable),
			RootKey:         getEnv("ERASURE_ROOT_KEY", defaults.RootKey),
			OwnerColumn:     getEnv("ERASURE_OWNER_COLUMN", defaults.OwnerColumn),
			EmailColumn:     getEnv("ERASURE_EMAIL_COLUMN", defaults.EmailColumn),
			NameColumn:      getEnv("ERASURE_NAME_COLUMN", defaults.NameColumn),
			TouchColumn:     getEnv("ERASURE_TOUCH_COLUMN", defaults.TouchColumn),
			AccountIDFormat: getEnv("ERASURE_ACCOUNT_ID_FORMAT", "uuid"),
			PurgeSecret:     os.Getenv("PURGE_SECRET"),
			PurgeRateLimit:  int64(getEnvInt("PURGE_RATE_LIMIT", 10)),
			PurgeRateWindow: getEnvInt("PURGE_RATE_WINDOW", 60),
		},
		Billing: BillingConfig{
			BaseURL: strings.TrimRight(getEnv("BILLING_BASE_URL", ""), "/"),
			APIKey:  getEnv("BILLING_API_KEY", ""),
			Timeout: getEnvDuration("BILLING_TIMEOUT", 10*time.Second),
		},
		Notification: NotificationConfig{
			FarewellStream: getEnv("FAREWELL_STREAM", "notifications:farewell"),
			EventsChannel:  getEnv("ACCOUNT_EVENTS_CHANNEL", "accounts:events"),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	if err := c.Schema().Validate(); err != nil {
		return fmt.Errorf("erasure schema: %w", err)
	}

	switch c.Erasure.AccountIDFormat {
	case "uuid", "opaque":
	default:
		return fmt.Errorf("unknown account id format: %s", c.Erasure.AccountIDFormat)
	}

	if c.Erasure.PurgeRateLimit < 1 || c.Erasure.PurgeRateWindow < 1 {
		return fmt.Errorf("purge rate limit and window must be positive")
	}

	return nil
}

// Schema returns the erasure conventions as an engine schema
func (c *Config) Schema() erasure.Schema {
	return erasure.Schema{
		RootTable:   c.Erasure.RootTable,
		RootKey:     c.Erasure.RootKey,
		OwnerColumn: c.Erasure.OwnerColumn,
		EmailColumn: c.Erasure.EmailColumn,
		NameColumn:  c.Erasure.NameColumn,
		TouchColumn: c.Erasure.TouchColumn,
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
