package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/supplyconnect/supplyconnect/internal/auth"
	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/dsn"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
	"github.com/supplyconnect/supplyconnect/internal/permission"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
	"github.com/supplyconnect/supplyconnect/internal/vault"
	"github.com/supplyconnect/supplyconnect/internal/web/handler"
)

// OpenDB connects to the configured database and migrates it.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	if err := sqliteDir(cfg); err != nil {
		return nil, err
	}

	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if cfg.DevMode {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = models.Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Msg("database ready")

	return db, nil
}

// sqliteDir creates the directory of a file based sqlite database.
func sqliteDir(cfg *config.Config) error {
	if cfg.DB.GormEngine != config.EngineSQLite && cfg.DB.GormEngine != "" {
		return nil
	}

	name := cfg.DB.Name
	if name == "" || strings.HasPrefix(name, ":memory:") || strings.HasPrefix(name, "file:") {
		return nil
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}

// Services are the components shared by the daemon and the CLI commands.
type Services struct {
	DB        *gorm.DB
	Vault     *vault.Vault
	Tenants   *tenant.Store
	Directory *directory.Connector
	Resolver  *permission.Resolver
	Login     *auth.LoginService
	Guard     *auth.Guard
	Sync      *dirsync.Job
}

// NewServices builds the service graph on top of db. The vault master key is
// read once here and never again.
func NewServices(cfg *config.Config, db *gorm.DB) (*Services, error) {
	v, err := vault.New(cfg.Vault.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault (set %s): %w", config.EnvMasterKey, err)
	}

	store := tenant.NewStore(db, v)
	connector := directory.NewConnector(store, v,
		directory.WithPageSize(cfg.Directory.PageSize),
		directory.WithDefaultTimeout(cfg.Directory.DefaultTimeout),
	)
	resolver := permission.NewResolver(db)

	return &Services{
		DB:        db,
		Vault:     v,
		Tenants:   store,
		Directory: connector,
		Resolver:  resolver,
		Login:     auth.NewLoginService(db, connector, auth.WithLoginCapability(resolver)),
		Guard:     auth.NewGuard(db),
		Sync:      dirsync.NewJob(db, connector, dirsync.WithLockTTL(cfg.Sync.LockTTL)),
	}, nil
}

// HandlerDeps returns the dependencies of the web handlers.
func (s *Services) HandlerDeps() *handler.Deps {
	return &handler.Deps{
		DB:        s.DB,
		Login:     s.Login,
		Guard:     s.Guard,
		Resolver:  s.Resolver,
		Sync:      s.Sync,
		Tenants:   s.Tenants,
		Directory: s.Directory,
	}
}
