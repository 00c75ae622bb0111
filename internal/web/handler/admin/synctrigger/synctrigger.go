// Package synctrigger starts directory syncs on request of a tenant administrator.
package synctrigger

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	authmw "github.com/supplyconnect/supplyconnect/internal/web/middleware/auth"
)

// Path is the route of the sync trigger.
const Path = "/admin/sync/:kind"

// Service is the sync trigger handler service.
type Service struct {
	guard *auth.Guard
	job   *dirsync.Job
}

// Handler is the sync trigger handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the sync trigger route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.Guard == nil || deps.Sync == nil || deps.DB == nil {
		return handler.ErrNilDeps
	}

	s.guard = deps.Guard
	s.job = deps.Sync

	app.Post(Path, authmw.New(deps.Guard, auth.NewLocalProvider(deps.DB)), s.Post)

	return nil
}

// Post runs one sync for the caller's tenant, or ?tenant=XX for global administrators,
// and returns the summary line.
func (s *Service) Post(c *fiber.Ctx) error {
	p := authmw.Principal(c)

	tenantID := handler.TargetTenant(c, p)
	if tenantID == "" {
		return handler.Error(c, handler.ErrTenantRequired)
	}

	if err := s.guard.AllowGrant(p, tenantID, auth.CanSyncDirectory); err != nil {
		return handler.Error(c, err)
	}

	report, err := s.job.Run(c.UserContext(), tenantID, models.SyncKind(c.Params("kind")), models.SyncTriggerManual)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"summary": report.String(),
		"report":  report,
	})
}
