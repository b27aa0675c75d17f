package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/common/clients"
	"github.com/lyzr/accounts/common/logger"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AccountIDKey is the echo context key for the authenticated account id
	AccountIDKey ContextKey = "account_id"

	// UserIDHeader is set by the upstream gateway after verifying the session
	UserIDHeader = "X-User-ID"
)

// RequireAccount rejects requests without a verified caller identity and
// stores it for handlers. Session verification happens upstream.
func RequireAccount() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accountID := c.Request().Header.Get(UserIDHeader)

			if accountID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "authentication required",
				})
			}

			c.Set(string(AccountIDKey), accountID)
			return next(c)
		}
	}
}

// GetAccountID retrieves the account id stored by RequireAccount
// Returns empty string if not set
func GetAccountID(c echo.Context) string {
	accountID, _ := c.Get(string(AccountIDKey)).(string)
	return accountID
}

// RequestContext copies the echo request id into the request context so
// service logs and outbound calls carry it
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Request().Header.Get(echo.HeaderXRequestID)
			}

			if requestID != "" {
				ctx := c.Request().Context()
				ctx = context.WithValue(ctx, logger.RequestIDKey, requestID)
				ctx = clients.WithRequestID(ctx, requestID)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			return next(c)
		}
	}
}
