package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/accounts/cmd/accounts/models"
	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
)

// PurgeSecretHeader carries the operator shared secret
const PurgeSecretHeader = "X-Purge-Secret"

// AdminHandler handles operator recovery requests. Responses carry the full
// diagnostic report; this is a trusted internal tool.
type AdminHandler struct {
	eraser Eraser
	log    *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(eraser Eraser, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		eraser: eraser,
		log:    log,
	}
}

// PurgeByEmail removes an account and everything referencing it, found by email
// POST /api/v1/admin/purge-by-email
func (h *AdminHandler) PurgeByEmail(c echo.Context) error {
	if !h.eraser.PurgeEnabled() {
		return errorJSON(c, http.StatusServiceUnavailable, "not_configured", erasure.ErrNotConfigured)
	}

	secret := c.Request().Header.Get(PurgeSecretHeader)
	if secret == "" {
		return errorJSON(c, http.StatusUnauthorized, "missing_secret", errors.New(PurgeSecretHeader+" header is required"))
	}

	var req models.PurgeByEmailRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", err)
	}

	ctx := c.Request().Context()
	report, err := h.eraser.PurgeByEmail(ctx, req.Email, secret)
	if err != nil {
		return h.purgeError(c, report, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "purged",
		"report": report,
	})
}

func (h *AdminHandler) purgeError(c echo.Context, report *erasure.Report, err error) error {
	switch {
	case errors.Is(err, erasure.ErrNotConfigured):
		return errorJSON(c, http.StatusServiceUnavailable, "not_configured", err)
	case errors.Is(err, erasure.ErrBadSecret):
		return errorJSON(c, http.StatusForbidden, "bad_secret", err)
	case errors.Is(err, erasure.ErrInvalidEmail):
		return errorJSON(c, http.StatusBadRequest, "invalid_email", err)
	case errors.Is(err, erasure.ErrAccountNotFound):
		return errorJSON(c, http.StatusNotFound, "not_found", err)
	}

	h.log.WithContext(c.Request().Context()).Error("operator purge failed", "error", err)

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error":   "deletion_failed",
		"message": err.Error(),
		"report":  report,
	})
}

func errorJSON(c echo.Context, status int, code string, err error) error {
	return c.JSON(status, map[string]interface{}{
		"error":   code,
		"message": err.Error(),
	})
}
