package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	coreauth "github.com/supplyconnect/supplyconnect/internal/auth"
	fiberlog "github.com/supplyconnect/supplyconnect/internal/logger/adapter/fiber"
	"github.com/supplyconnect/supplyconnect/internal/web/session"
)

// PrincipalLocal is the fiber.Locals key of the authenticated principal.
const PrincipalLocal = "principal"

// New returns a middleware that resolves the session cookie to a principal.
// Requests without a valid session of an active user are rejected with 401.
func New(guard *coreauth.Guard, users *coreauth.LocalProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var data session.Data
		if err := data.Read(c.Cookies(session.CookieName)); err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				log.Error().Err(err).Msg("failed to read session")
			}

			return unauthenticated(c)
		}

		user, err := users.GetUserByID(c.UserContext(), data.UserID)
		if err != nil {
			if errors.Is(err, coreauth.ErrUserNotFound) {
				return unauthenticated(c)
			}

			return err
		}

		if !user.Active {
			return unauthenticated(c)
		}

		principal, err := guard.Principal(c.UserContext(), user, data.TenantID)
		if err != nil {
			return err
		}

		c.Locals(PrincipalLocal, principal)
		c.Locals(fiberlog.UsernameLocal, principal.Username)
		c.Locals(fiberlog.TenantLocal, principal.TenantID)

		return c.Next()
	}
}

// Principal returns the principal stored by the middleware, or nil.
func Principal(c *fiber.Ctx) *coreauth.Principal {
	p, _ := c.Locals(PrincipalLocal).(*coreauth.Principal)

	return p
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": coreauth.ErrUnauthenticated.Error()})
}
