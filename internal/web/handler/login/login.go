// Package login provides the login endpoint of the web API.
package login

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	"github.com/supplyconnect/supplyconnect/internal/web/middleware/ratelimit"
	"github.com/supplyconnect/supplyconnect/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"

	// RedirectTarget is returned to the client after a successful login.
	RedirectTarget = "/"
)

// Request is the login body, accepted as JSON or form.
type Request struct {
	Tenant   string `json:"tenant"   form:"tenant"   validate:"required,max=8"`
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"` //nolint:gosec
}

// Service is the login handler service.
type Service struct {
	cfg       *config.Config
	login     *auth.LoginService
	validator *validator.Validate
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.Login == nil {
		return handler.ErrNilDeps
	}

	s.cfg = cfg
	s.login = deps.Login
	s.validator = validator.New()

	limiter := ratelimit.New(cfg.Webserver.LoginRateLimit, cfg.Webserver.LoginBurst)

	app.Post(Path, limiter.Handler(), s.Post)

	return nil
}

// Post authenticates the user and sets the session cookie.
// Every failure is answered with the same message.
func (s *Service) Post(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return invalid(c)
	}

	req.Tenant = strings.ToUpper(strings.TrimSpace(req.Tenant))

	if err := s.validator.Struct(req); err != nil {
		return invalid(c)
	}

	result, err := s.login.Login(c.UserContext(), req.Tenant, req.Username, req.Password)
	if err != nil {
		return invalid(c)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternalServerError.Error()})
	}

	userSession := &session.Data{
		UserID:   result.User.ID,
		TenantID: result.TenantID,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrInternalServerError.Error()})
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		Domain:   s.cfg.Webserver.Domain,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   s.cfg.Webserver.Session.CookieSecure && !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{"redirect": RedirectTarget})
}

func invalid(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidCredentials.Error()})
}
