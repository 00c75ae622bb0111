package config

import (
	"time"

	"github.com/supplyconnect/supplyconnect/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool   // enable dev mode for development
	Title     string `validate:"required"`
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Vault     Vault
	Directory Directory
	Sync      Sync
}

// Session settings.
type Session struct {
	ExpiryTime   time.Duration
	CookieSecure bool // send the session cookie over https only
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // cookie domain
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown in seconds
	URL            string  // base url for the webserver
	LoginRateLimit float64 // login attempts per second and client IP
	LoginBurst     int     // login attempts allowed at once per client IP
	Session        Session // session settings
}

// Vault configures the credential vault. The master key is normally passed by
// the SUPPLYCONNECT_MASTER_KEY environment variable.
type Vault struct {
	MasterKey string
}

// Directory holds process wide directory client settings.
type Directory struct {
	DefaultTimeout int    `validate:"gte=0"` // seconds, for configs without their own timeout
	PageSize       uint32 // paged search size of the sync fetches
}

// Sync configures the directory sync scheduler.
type Sync struct {
	Enabled  bool
	Schedule string        // cron spec, for example "@every 6h" or "0 3 * * *"
	Kinds    []string      `validate:"dive,oneof=groups users memberships"`
	LockTTL  time.Duration // expiry of the per-tenant sync lock
}
