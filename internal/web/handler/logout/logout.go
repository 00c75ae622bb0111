// Package logout provides the logout endpoint.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	"github.com/supplyconnect/supplyconnect/internal/web/session"
)

// Path is the path to the logout endpoint.
const Path = "/logout"

// Service is the logout handler service.
type Service struct{}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the logout route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return handler.ErrNilDeps
	}

	app.Post(Path, s.Post)

	return nil
}

// Post deletes the session and expires the cookie. It succeeds without a session too.
func (s *Service) Post(c *fiber.Ctx) error {
	if err := session.Delete(c.Cookies(session.CookieName)); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	c.ClearCookie(session.CookieName)

	return c.JSON(fiber.Map{"redirect": "/login"})
}
