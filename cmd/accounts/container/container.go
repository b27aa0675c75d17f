package container

import (
	"context"
	"fmt"

	"github.com/lyzr/accounts/cmd/accounts/repository"
	"github.com/lyzr/accounts/cmd/accounts/service"
	"github.com/lyzr/accounts/common/bootstrap"
	"github.com/lyzr/accounts/common/clients"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/ratelimit"
	rediscommon "github.com/lyzr/accounts/common/redis"
	"github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client // nil when Redis is disabled

	// Repositories
	AccountRepo *repository.AccountRepository

	// Services
	Engine         *erasure.Engine
	ErasureService *service.ErasureService
	RateLimiter    *ratelimit.RateLimiter // nil when Redis is disabled
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	if components.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	c := &Container{Components: components}

	var notifier service.Notifier = clients.NewNoopNotifier(log)
	opts := []service.Option{
		service.WithAccountIDFormat(service.IDFormat(cfg.Erasure.AccountIDFormat)),
	}

	if cfg.Redis.Enabled {
		redisRaw := createRedisClient(components)
		c.Redis = rediscommon.NewClient(redisRaw, log)

		if err := c.Redis.Ping(ctx); err != nil {
			c.Redis.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		notifier = clients.NewFarewellPublisher(c.Redis, cfg.Notification.FarewellStream, log)
		c.RateLimiter = ratelimit.NewRateLimiter(redisRaw, log)
		opts = append(opts, service.WithEvents(
			clients.NewEventPublisher(c.Redis, cfg.Notification.EventsChannel, log),
		))
	} else {
		log.Warn("redis disabled: farewell notifications, account events and purge rate limiting are off")
	}

	billing := clients.NewBillingClient(cfg.Billing.BaseURL, cfg.Billing.APIKey, cfg.Billing.Timeout, log)
	if !billing.Enabled() {
		log.Warn("billing disabled: subscriptions will not be cancelled on deletion")
	}

	schema := cfg.Schema()
	c.AccountRepo = repository.NewAccountRepository(components.Store, schema)
	c.Engine = erasure.NewEngine(components.Store, schema, log)

	var recorder service.Recorder
	if components.Telemetry != nil {
		recorder = components.Telemetry
	}

	c.ErasureService = service.NewErasureService(
		c.Engine,
		c.AccountRepo,
		billing,
		notifier,
		recorder,
		cfg.Erasure.PurgeSecret,
		log,
		opts...,
	)

	if !c.ErasureService.PurgeEnabled() {
		log.Info("PURGE_SECRET not set: operator purge-by-email is disabled")
	}

	return c, nil
}

// Close releases connections the container opened
func (c *Container) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}

// createRedisClient creates a Redis client from configuration
func createRedisClient(components *bootstrap.Components) *redis.Client {
	cfg := components.Config

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
