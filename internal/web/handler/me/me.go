// Package me serves the effective capabilities of the logged in user.
package me

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/permission"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	authmw "github.com/supplyconnect/supplyconnect/internal/web/middleware/auth"
)

// Path is the route of the capability listing.
const Path = "/me/capabilities"

// Response lists every capability with the layer that decided it.
type Response struct {
	Username     string                                    `json:"username"`
	TenantID     string                                    `json:"tenant"`
	Tier         models.Tier                               `json:"tier,omitempty"`
	Capabilities map[models.Capability]permission.Decision `json:"capabilities"`
}

// Service is the capability handler service.
type Service struct {
	users    *auth.LocalProvider
	resolver *permission.Resolver
}

// Handler is the capability handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the capability route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.DB == nil || deps.Guard == nil || deps.Resolver == nil {
		return handler.ErrNilDeps
	}

	s.users = auth.NewLocalProvider(deps.DB)
	s.resolver = deps.Resolver

	app.Get(Path, authmw.New(deps.Guard, s.users), s.Get)

	return nil
}

// Get resolves every capability of the caller for its tenant. Global
// administrators name the tenant with ?tenant.
func (s *Service) Get(c *fiber.Ctx) error {
	p := authmw.Principal(c)

	tenantID := handler.TargetTenant(c, p)
	if tenantID == "" {
		return handler.Error(c, handler.ErrTenantRequired)
	}

	if err := s.guard(p, tenantID); err != nil {
		return handler.Error(c, err)
	}

	user, err := s.users.GetUserByID(c.UserContext(), p.UserID)
	if err != nil {
		return handler.Error(c, err)
	}

	decisions, err := s.resolver.Effective(c.UserContext(), user, tenantID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(Response{
		Username:     user.Username,
		TenantID:     tenantID,
		Tier:         p.Tier,
		Capabilities: decisions,
	})
}

// guard lets everybody read its own tenant and only global administrators read others.
func (s *Service) guard(p *auth.Principal, tenantID string) error {
	if p.IsGlobal() || p.TenantID == tenantID {
		return nil
	}

	return auth.ErrTenantMismatch
}
