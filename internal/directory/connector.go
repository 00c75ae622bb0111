package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// DefaultPageSize is the paged-search page size used by the sync fetches.
const DefaultPageSize uint32 = 500

// ConfigSource resolves the effective directory configuration of a tenant.
// Implementations return ErrTenantNotConfigured (possibly wrapped) when none applies.
type ConfigSource interface {
	DirectoryConfig(ctx context.Context, tenantID string) (*models.TenantDirectoryConfig, error)
}

// CredentialOpener opens sealed service account credentials.
type CredentialOpener interface {
	OpenStrict(token string) (string, error)
}

// Connector authenticates users and reads directory objects for one process.
// It holds no per-tenant state; every call resolves its configuration.
type Connector struct {
	configs  ConfigSource
	vault    CredentialOpener
	dial     Dialer
	pageSize uint32
	timeout  int
}

// Option configures a Connector.
type Option func(*Connector)

// WithDialer replaces the go-ldap dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(c *Connector) {
		c.dial = d
	}
}

// WithPageSize changes the page size of paged searches.
func WithPageSize(size uint32) Option {
	return func(c *Connector) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithDefaultTimeout sets the timeout in seconds of configurations without their own.
func WithDefaultTimeout(seconds int) Option {
	return func(c *Connector) {
		if seconds > 0 {
			c.timeout = seconds
		}
	}
}

// NewConnector creates a connector reading tenant configs from configs and
// opening service credentials with vault.
func NewConnector(configs ConfigSource, vault CredentialOpener, opts ...Option) *Connector {
	c := &Connector{
		configs:  configs,
		vault:    vault,
		dial:     DialLDAP,
		pageSize: DefaultPageSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the active directory configuration of tenantID.
func (c *Connector) Config(ctx context.Context, tenantID string) (*models.TenantDirectoryConfig, error) {
	if tenantID == "" {
		return nil, ErrTenantNotConfigured
	}

	cfg, err := c.configs.DirectoryConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotConfigured) {
			return nil, ErrTenantNotConfigured
		}

		return nil, fmt.Errorf("failed to load directory config: %w", err)
	}

	if cfg == nil || !cfg.Active || cfg.Host() == "" {
		return nil, ErrTenantNotConfigured
	}

	c.applyTimeout(cfg)

	return cfg, nil
}

// Authenticate checks username and password against the tenant's directory and
// returns the user's identity.
//
// The bind uses the supplied credentials, converted to a principal with Principal.
// The user's entry is then searched with the tenant's filter, as the user.
func (c *Connector) Authenticate(ctx context.Context, tenantID, username, password string) (*Identity, error) {
	// an empty password would turn into an anonymous bind that always succeeds
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	cfg, err := c.Config(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err = conn.Bind(Principal(username, cfg), password); err != nil {
		return nil, translate("bind", err)
	}

	mapping := MappingFor(cfg)
	searchRequest := ldap.NewSearchRequest(
		cfg.UserBase(),
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		cfg.TimeoutSeconds,
		false,
		userFilter(cfg.UserFilter, username),
		mapping.Attributes(),
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, translate("user search", err)
	}

	if len(result.Entries) == 0 {
		return nil, ErrUserRecordNotFound
	}

	if len(result.Entries) > 1 {
		log.Warn().Str("tenant", tenantID).Str("username", username).Int("entries", len(result.Entries)).
			Msg("user filter matched more than one entry, using the first")
	}

	return mapping.Identity(result.Entries[0])
}

// TestConnection dials cfg, binds with its service account and reads the base DN.
// It does not need cfg to be active or persisted.
func (c *Connector) TestConnection(ctx context.Context, cfg *models.TenantDirectoryConfig) error {
	return c.withServiceBind(ctx, cfg, func(conn Conn) error {
		req := ldap.NewSearchRequest(
			cfg.BaseDN,
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			1,
			cfg.TimeoutSeconds,
			false,
			"(objectClass=*)",
			[]string{"dn"},
			nil,
		)

		if _, err := conn.Search(req); err != nil {
			return translate("base dn lookup", err)
		}

		return nil
	})
}

// withServiceBind dials cfg, binds with the service account and runs fn.
// Without a bind DN the connection stays anonymous.
func (c *Connector) withServiceBind(ctx context.Context, cfg *models.TenantDirectoryConfig, fn func(Conn) error) error {
	var password string

	c.applyTimeout(cfg)

	if cfg.BindDN != "" {
		var err error

		password, err = c.vault.OpenStrict(cfg.BindCredential)
		if err != nil {
			return fmt.Errorf("service account credential: %w", err)
		}

		if password == "" {
			return fmt.Errorf("%w: service account %q has no stored credential", ErrInvalidCredentials, cfg.BindDN)
		}
	}

	conn, err := c.dial(ctx, cfg)
	if err != nil {
		return err
	}

	defer closeConn(conn)

	if cfg.BindDN != "" {
		if err = conn.Bind(cfg.BindDN, password); err != nil {
			return translate("service bind", err)
		}
	}

	return fn(conn)
}

func (c *Connector) applyTimeout(cfg *models.TenantDirectoryConfig) {
	if cfg.TimeoutSeconds <= 0 && c.timeout > 0 {
		cfg.TimeoutSeconds = c.timeout
	}
}
