package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/dsn"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
	"github.com/supplyconnect/supplyconnect/internal/web"
	"github.com/supplyconnect/supplyconnect/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	scheduler  *dirsync.Scheduler
	sessions   fiber.Storage
}

// Start runs the scheduler and the web service until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	if d.scheduler != nil {
		d.scheduler.Start()
	}

	listenErr := make(chan error, 1)

	go func() {
		listenErr <- d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
	}()

	go d.webService.WaitShutdown()

	err := <-listenErr

	if d.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		d.scheduler.Stop(ctx)
		cancel()
	}

	if d.sessions != nil {
		if errClose := d.sessions.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close session storage")
		}
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = seed(cfg, db); err != nil {
		return nil, err
	}

	services, err := NewServices(cfg, db)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		sessions: sessionStorage(cfg),
	}

	session.Init(d.sessions)

	if d.webService, err = web.New(cfg, services.HandlerDeps()); err != nil {
		return nil, err
	}

	if cfg.Sync.Enabled {
		kinds := make([]models.SyncKind, 0, len(cfg.Sync.Kinds))
		for _, k := range cfg.Sync.Kinds {
			kinds = append(kinds, models.SyncKind(k))
		}

		if d.scheduler, err = dirsync.NewScheduler(services.Sync, services.Tenants, cfg.Sync.Schedule, kinds); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// sessionStorage keeps sessions in the application database. sqlite uses
// fiber's in-memory storage, which returns nil here.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	default:
		log.Warn().Msg("sessions are kept in memory and do not survive a restart")
		return nil
	}
}
