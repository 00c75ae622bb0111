package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/db/controller/mirror"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
	"github.com/supplyconnect/supplyconnect/internal/vault"
)

var (
	// ErrNilDeps is returned by Init when a dependency is missing.
	ErrNilDeps = errors.New(ErrNilACDFatalLogMsg)

	// ErrTenantRequired is returned when a global administrator omits the tenant parameter.
	ErrTenantRequired = errors.New("tenant is required")

	// ErrInvalidBody is returned when the request body can not be parsed.
	ErrInvalidBody = errors.New("invalid request body")
)

// Status maps an error of the administration surfaces to an HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrTenantMismatch),
		errors.Is(err, auth.ErrCapabilityNotGranted),
		errors.Is(err, mirror.ErrCrossTenant):
		return fiber.StatusForbidden
	case errors.Is(err, mirror.ErrGroupNotFound),
		errors.Is(err, mirror.ErrUserNotFound),
		errors.Is(err, tenant.ErrConfigNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dirsync.ErrSyncInProgress),
		errors.Is(err, tenant.ErrGlobalConfigExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrTenantRequired),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, dirsync.ErrUnknownKind),
		errors.Is(err, models.ErrUnknownCapability),
		errors.Is(err, tenant.ErrInvalidConfig),
		errors.Is(err, directory.ErrTenantNotConfigured),
		errors.Is(err, tenant.ErrMailRelayNotConfigured),
		errors.Is(err, vault.ErrDecryptionFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, dirsync.ErrSyncAborted),
		errors.Is(err, directory.ErrConnectionFailed),
		errors.Is(err, directory.ErrInvalidCredentials),
		errors.Is(err, directory.ErrProtocol),
		errors.Is(err, tenant.ErrMailRelayFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes err as JSON. Callers are trusted administrators and get the detail,
// except for internal errors which are only logged.
func Error(c *fiber.Ctx, err error) error {
	status := Status(err)

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
