package ratelimit

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// RateLimiter counts attempts per key in fixed windows using Redis + Lua
type RateLimiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewRateLimiter creates a new rate limiter with embedded Lua script
func NewRateLimiter(redisClient *redis.Client, logger Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// PurgeKey is the counter key for operator purge attempts from one client
func PurgeKey(clientIP string) string {
	return fmt.Sprintf("rate_limit:purge:%s", clientIP)
}

// CheckPurgeLimit counts one operator purge attempt from clientIP
func (r *RateLimiter) CheckPurgeLimit(ctx context.Context, clientIP string, limit int64, windowSec int) (*RateLimitResult, error) {
	return r.checkLimit(ctx, PurgeKey(clientIP), limit, windowSec)
}

// checkLimit executes the rate limit Lua script
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*RateLimitResult, error) {
	result, err := r.script.Run(ctx, r.redis, []string{key}, limit, windowSec).Int64Slice()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// {allowed, current_count, limit, retry_after}
	if len(result) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	rateLimitResult := &RateLimitResult{
		Allowed:           result[0] == 1,
		CurrentCount:      result[1],
		Limit:             result[2],
		RetryAfterSeconds: result[3],
	}

	if !rateLimitResult.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", rateLimitResult.CurrentCount,
			"limit", limit,
			"retry_after", rateLimitResult.RetryAfterSeconds)
	} else {
		r.logger.Debug("rate limit check passed",
			"key", key,
			"current", rateLimitResult.CurrentCount,
			"limit", limit)
	}

	return rateLimitResult, nil
}
