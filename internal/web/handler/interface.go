package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
	"github.com/supplyconnect/supplyconnect/internal/permission"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps) error
}

// DirectoryTester runs a service bind against a directory configuration.
type DirectoryTester interface {
	TestConnection(ctx context.Context, cfg *models.TenantDirectoryConfig) error
}

// Deps are the services the handlers work with.
type Deps struct {
	DB        *gorm.DB
	Login     *auth.LoginService
	Guard     *auth.Guard
	Resolver  *permission.Resolver
	Sync      *dirsync.Job
	Tenants   *tenant.Store
	Directory DirectoryTester
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil && d.DB != nil && d.Login != nil && d.Guard != nil && d.Resolver != nil &&
		d.Sync != nil && d.Tenants != nil && d.Directory != nil
}
