package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/common/ratelimit"
)

// Logger interface for logging
type Logger interface {
	Warn(msg string, keysAndValues ...interface{})
}

// PurgeLimiter counts operator purge attempts; *ratelimit.RateLimiter satisfies it
type PurgeLimiter interface {
	CheckPurgeLimit(ctx context.Context, clientIP string, limit int64, windowSec int) (*ratelimit.RateLimitResult, error)
}

// PurgeRateLimitMiddleware limits operator purge attempts per client IP so the
// shared secret cannot be guessed by volume. Every attempt counts, successful
// or not. Limiter errors let the request through.
func PurgeRateLimitMiddleware(limiter PurgeLimiter, limit int64, windowSec int, log Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientIP := c.RealIP()

			result, err := limiter.CheckPurgeLimit(c.Request().Context(), clientIP, limit, windowSec)
			if err != nil {
				// On error, allow request (fail open for availability)
				log.Warn("purge rate limit unavailable", "client_ip", clientIP, "error", err)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "purge_rate_limit_exceeded",
					"message": "Too many purge attempts. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"window":              fmt.Sprintf("%d seconds", windowSec),
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
