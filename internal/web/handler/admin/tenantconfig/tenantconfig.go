// Package tenantconfig saves and tests the directory and mail relay
// configuration of a tenant.
//
// Country administrators need the matching flag of their grant and act on
// their own tenant. The global rows (global=true) are reserved for global
// administrators. Errors carry the full detail.
package tenantconfig

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	authmw "github.com/supplyconnect/supplyconnect/internal/web/middleware/auth"
)

const (
	// DirectoryPath is the route of the directory configuration.
	DirectoryPath = "/admin/directory"
	// MailRelayPath is the route of the mail relay configuration.
	MailRelayPath = "/admin/mail-relay"
)

// Service is the tenant configuration handler service.
type Service struct {
	guard     *auth.Guard
	tenants   *tenant.Store
	directory handler.DirectoryTester
	validator *validator.Validate
}

// Handler is the tenant configuration handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the configuration routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.guard = deps.Guard
	s.tenants = deps.Tenants
	s.directory = deps.Directory
	s.validator = validator.New()

	mw := authmw.New(deps.Guard, auth.NewLocalProvider(deps.DB))

	app.Route(DirectoryPath, func(router fiber.Router) {
		router.Use(mw)
		router.Get(handler.RootPath, s.ListDirectory)
		router.Put(handler.RootPath, s.PutDirectory)
		router.Post("/test", s.TestDirectory)
	})

	app.Route(MailRelayPath, func(router fiber.Router) {
		router.Use(mw)
		router.Get(handler.RootPath, s.ListMailRelay)
		router.Put(handler.RootPath, s.PutMailRelay)
		router.Post("/test", s.TestMailRelay)
	})

	return nil
}

// scope authorizes the request and returns the tenant it acts on, empty for the global rows.
func (s *Service) scope(c *fiber.Ctx, global bool, flag auth.GrantFlag) (string, error) {
	p := authmw.Principal(c)

	if global {
		return "", s.guard.Allow(p, models.TierGlobal, "")
	}

	tenantID := handler.TargetTenant(c, p)
	if tenantID == "" {
		if err := s.guard.Allow(p, models.TierCountry, ""); err != nil {
			return "", err
		}

		return "", handler.ErrTenantRequired
	}

	return tenantID, s.guard.AllowGrant(p, tenantID, flag)
}

func actor(c *fiber.Ctx) *uint64 {
	p := authmw.Principal(c)
	if p == nil {
		return nil
	}

	id := p.UserID

	return &id
}

// ListDirectory lists the directory rows of the tenant, or the global ones with ?global=true.
func (s *Service) ListDirectory(c *fiber.Ctx) error {
	tenantID, err := s.scope(c, c.QueryBool("global"), auth.CanConfigureDirectory)
	if err != nil {
		return handler.Error(c, err)
	}

	rows, err := s.tenants.DirectoryConfigs(c.UserContext(), tenantID)
	if err != nil {
		return handler.Error(c, err)
	}

	out := make([]Status, 0, len(rows))
	for i := range rows {
		out = append(out, directoryStatus(&rows[i]))
	}

	return c.JSON(out)
}

// PutDirectory creates or updates a directory configuration and seals its credential.
func (s *Service) PutDirectory(c *fiber.Ctx) error {
	var req DirectoryRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, handler.ErrInvalidBody)
	}

	tenantID, err := s.scope(c, req.Global, auth.CanConfigureDirectory)
	if err != nil {
		return handler.Error(c, err)
	}

	if err = s.validator.Struct(req); err != nil {
		return handler.Error(c, errors.Join(tenant.ErrInvalidConfig, err))
	}

	if req.ID != 0 {
		if _, err = s.directoryRow(c, tenantID, req.ID); err != nil {
			return handler.Error(c, err)
		}
	}

	cfg := req.model(tenantID)
	if err = s.tenants.SaveDirectoryConfig(c.UserContext(), cfg, req.Password, actor(c)); err != nil {
		return handler.Error(c, err)
	}

	log.Info().Str("tenant", tenantID).Uint64("config_id", cfg.ID).Bool("active", cfg.Active).
		Msg("directory configuration saved")

	return c.JSON(directoryStatus(cfg))
}

// TestDirectory binds with the service account of a row, or of the tenant's
// effective configuration when no ID is given, and records the outcome on the row.
func (s *Service) TestDirectory(c *fiber.Ctx) error {
	var req TestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return handler.Error(c, handler.ErrInvalidBody)
		}
	}

	tenantID, err := s.scope(c, req.Global, auth.CanConfigureDirectory)
	if err != nil {
		return handler.Error(c, err)
	}

	var cfg *models.TenantDirectoryConfig
	if req.ID != 0 {
		cfg, err = s.directoryRow(c, tenantID, req.ID)
	} else {
		cfg, err = s.tenants.DirectoryConfig(c.UserContext(), tenantID)
	}

	if err != nil {
		return handler.Error(c, err)
	}

	cfg.ApplyDefaults()
	testErr := s.directory.TestConnection(c.UserContext(), cfg)

	if cfg.ID != 0 {
		if err = s.tenants.RecordDirectoryTest(c.UserContext(), cfg.ID, testErr); err != nil {
			log.Error().Err(err).Uint64("config_id", cfg.ID).Msg("failed to record directory test")
		}
	}

	if testErr != nil {
		return handler.Error(c, testErr)
	}

	return c.JSON(fiber.Map{"ok": true, "server": cfg.URL()})
}

func (s *Service) directoryRow(c *fiber.Ctx, tenantID string, id uint64) (*models.TenantDirectoryConfig, error) {
	rows, err := s.tenants.DirectoryConfigs(c.UserContext(), tenantID)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].ID == id {
			return &rows[i], nil
		}
	}

	return nil, tenant.ErrConfigNotFound
}

// ListMailRelay lists the mail relay rows of the tenant, or the global ones with ?global=true.
func (s *Service) ListMailRelay(c *fiber.Ctx) error {
	tenantID, err := s.scope(c, c.QueryBool("global"), auth.CanConfigureMailRelay)
	if err != nil {
		return handler.Error(c, err)
	}

	rows, err := s.tenants.MailRelayConfigs(c.UserContext(), tenantID)
	if err != nil {
		return handler.Error(c, err)
	}

	out := make([]Status, 0, len(rows))
	for i := range rows {
		out = append(out, mailRelayStatus(&rows[i]))
	}

	return c.JSON(out)
}

// PutMailRelay creates or updates a mail relay configuration and seals its credential.
func (s *Service) PutMailRelay(c *fiber.Ctx) error {
	var req MailRelayRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, handler.ErrInvalidBody)
	}

	tenantID, err := s.scope(c, req.Global, auth.CanConfigureMailRelay)
	if err != nil {
		return handler.Error(c, err)
	}

	if err = s.validator.Struct(req); err != nil {
		return handler.Error(c, errors.Join(tenant.ErrInvalidConfig, err))
	}

	if req.ID != 0 {
		if _, err = s.mailRelayRow(c, tenantID, req.ID); err != nil {
			return handler.Error(c, err)
		}
	}

	cfg := req.model(tenantID)
	if err = s.tenants.SaveMailRelayConfig(c.UserContext(), cfg, req.Password, actor(c)); err != nil {
		return handler.Error(c, err)
	}

	log.Info().Str("tenant", tenantID).Uint64("config_id", cfg.ID).Bool("active", cfg.Active).
		Msg("mail relay configuration saved")

	return c.JSON(mailRelayStatus(cfg))
}

// TestMailRelay connects to a relay and records the outcome on the row.
func (s *Service) TestMailRelay(c *fiber.Ctx) error {
	var req TestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return handler.Error(c, handler.ErrInvalidBody)
		}
	}

	tenantID, err := s.scope(c, req.Global, auth.CanConfigureMailRelay)
	if err != nil {
		return handler.Error(c, err)
	}

	var cfg *models.MailRelayConfig
	if req.ID != 0 {
		cfg, err = s.mailRelayRow(c, tenantID, req.ID)
	} else {
		cfg, err = s.tenants.MailRelayConfig(c.UserContext(), tenantID)
	}

	if err != nil {
		return handler.Error(c, err)
	}

	cfg.ApplyDefaults()
	testErr := s.tenants.TestMailRelay(c.UserContext(), cfg)

	if cfg.ID != 0 {
		if err = s.tenants.RecordMailRelayTest(c.UserContext(), cfg.ID, testErr); err != nil {
			log.Error().Err(err).Uint64("config_id", cfg.ID).Msg("failed to record mail relay test")
		}
	}

	if testErr != nil {
		return handler.Error(c, testErr)
	}

	return c.JSON(fiber.Map{"ok": true, "server": cfg.Addr()})
}

func (s *Service) mailRelayRow(c *fiber.Ctx, tenantID string, id uint64) (*models.MailRelayConfig, error) {
	rows, err := s.tenants.MailRelayConfigs(c.UserContext(), tenantID)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].ID == id {
			return &rows[i], nil
		}
	}

	return nil, tenant.ErrConfigNotFound
}
