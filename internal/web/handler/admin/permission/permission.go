// Package permission exposes the capability toggles on directory mirrors.
//
// Every route requires a country administrator whose grant allows assigning
// permissions, acting on its own tenant. Global administrators act on any
// tenant. All setters are idempotent.
package permission

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/controller/mirror"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
	authmw "github.com/supplyconnect/supplyconnect/internal/web/middleware/auth"
)

const (
	// GroupsPath is the route group of group mirrors.
	GroupsPath = "/admin/groups"
	// UsersPath is the route group of user mirrors.
	UsersPath = "/admin/users"
)

// Service is the permission handler service.
type Service struct {
	db    *gorm.DB
	guard *auth.Guard
}

// Handler is the permission handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers the toggle routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil || deps.DB == nil || deps.Guard == nil {
		return handler.ErrNilDeps
	}

	s.db = deps.DB
	s.guard = deps.Guard

	mw := authmw.New(deps.Guard, auth.NewLocalProvider(deps.DB))

	app.Route(GroupsPath, func(router fiber.Router) {
		router.Use(mw, s.allow)
		router.Get(handler.RootPath, s.ListGroups)
		router.Put("/:id/capabilities/:capability", s.SetGroupCapability)
	})

	app.Route(UsersPath, func(router fiber.Router) {
		router.Use(mw, s.allow)
		router.Get(handler.RootPath, s.ListUsers)
		router.Put("/:id/capabilities/:capability", s.SetUserCapability)
		router.Put("/:id/override", s.SetOverride)
		router.Put("/:id/groups", s.SetGroups)
	})

	return nil
}

const scopeLocal = "permission_scope"

// allow checks the grant and stores the tenant scope of the request.
// The scope is empty for global administrators without ?tenant.
func (s *Service) allow(c *fiber.Ctx) error {
	p := authmw.Principal(c)
	scope := handler.TargetTenant(c, p)

	if err := s.guard.AllowGrant(p, scope, auth.CanAssignPermissions); err != nil {
		return handler.Error(c, err)
	}

	c.Locals(scopeLocal, scope)

	return c.Next()
}

func scope(c *fiber.Ctx) string {
	s, _ := c.Locals(scopeLocal).(string)

	return s
}

// ListGroups lists the group mirrors of the tenant.
func (s *Service) ListGroups(c *fiber.Ctx) error {
	if scope(c) == "" {
		return handler.Error(c, handler.ErrTenantRequired)
	}

	groups, err := mirror.ListGroups(s.db.WithContext(c.UserContext()), scope(c))
	if err != nil {
		return handler.Error(c, err)
	}

	out := make([]Group, 0, len(groups))
	for i := range groups {
		out = append(out, groupView(&groups[i]))
	}

	return c.JSON(out)
}

// ListUsers lists the user mirrors of the tenant.
func (s *Service) ListUsers(c *fiber.Ctx) error {
	if scope(c) == "" {
		return handler.Error(c, handler.ErrTenantRequired)
	}

	users, err := mirror.ListUsers(s.db.WithContext(c.UserContext()), scope(c))
	if err != nil {
		return handler.Error(c, err)
	}

	out := make([]User, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}

	return c.JSON(out)
}

// SetGroupCapability sets one capability of a group mirror.
func (s *Service) SetGroupCapability(c *fiber.Ctx) error {
	id, value, err := parseToggle(c)
	if err != nil {
		return handler.Error(c, err)
	}

	group, err := mirror.SetGroupCapability(s.db.WithContext(c.UserContext()), scope(c), id,
		models.Capability(c.Params("capability")), value)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(groupView(group))
}

// SetUserCapability sets one capability of a user mirror.
func (s *Service) SetUserCapability(c *fiber.Ctx) error {
	id, value, err := parseToggle(c)
	if err != nil {
		return handler.Error(c, err)
	}

	user, err := mirror.SetUserCapability(s.db.WithContext(c.UserContext()), scope(c), id,
		models.Capability(c.Params("capability")), value)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(userView(user))
}

// SetOverride turns the individual permissions override of a user mirror on or off.
func (s *Service) SetOverride(c *fiber.Ctx) error {
	id, value, err := parseToggle(c)
	if err != nil {
		return handler.Error(c, err)
	}

	user, err := mirror.SetUserOverride(s.db.WithContext(c.UserContext()), scope(c), id, value)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(userView(user))
}

// SetGroups replaces the group memberships of a user mirror.
func (s *Service) SetGroups(c *fiber.Ctx) error {
	id, err := handler.ParamID(c)
	if err != nil {
		return handler.Error(c, err)
	}

	var req GroupsRequest
	if err = c.BodyParser(&req); err != nil {
		return handler.Error(c, handler.ErrInvalidBody)
	}

	user, err := mirror.SetUserGroups(s.db.WithContext(c.UserContext()), scope(c), id, req.GroupIDs)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(userView(user))
}

func parseToggle(c *fiber.Ctx) (uint64, bool, error) {
	id, err := handler.ParamID(c)
	if err != nil {
		return 0, false, err
	}

	var req ToggleRequest
	if err = c.BodyParser(&req); err != nil || req.Value == nil {
		return 0, false, handler.ErrInvalidBody
	}

	return id, *req.Value, nil
}
