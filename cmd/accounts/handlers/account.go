package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/cmd/accounts/middleware"
	"github.com/lyzr/accounts/cmd/accounts/service"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
)

// Eraser is the part of service.ErasureService the handlers call
type Eraser interface {
	PurgeSelf(ctx context.Context, accountID string) error
	PurgeByEmail(ctx context.Context, email, secret string) (*erasure.Report, error)
	PurgeEnabled() bool
}

// AccountHandler handles self-service account requests
type AccountHandler struct {
	eraser Eraser
	log    *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(eraser Eraser, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		eraser: eraser,
		log:    log,
	}
}

// DeleteAccount permanently deletes the caller's account and everything
// referencing it. Callers get a generic outcome only.
// DELETE /api/v1/account
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	accountID := middleware.GetAccountID(c)

	err := h.eraser.PurgeSelf(ctx, accountID)
	if err == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "deleted",
		})
	}

	log := h.log.WithContext(ctx).WithAccountID(accountID)

	switch {
	case erasure.IsValidation(err):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid account",
		})
	case service.IsExpectedRace(err):
		log.Warn("account deletion lost a concurrent race", "error", err)
	default:
		log.Error("account deletion failed", "error", err)
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": "account deletion failed",
	})
}
