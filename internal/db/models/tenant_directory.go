package models

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// TransportSecurity is the transport mode used to reach a directory or mail server.
type TransportSecurity string

const (
	// SecurityNone uses a plain TCP connection.
	SecurityNone TransportSecurity = "none"
	// SecurityStartTLS upgrades a plain connection with StartTLS.
	SecurityStartTLS TransportSecurity = "starttls"
	// SecuritySSL connects with implicit TLS (ldaps, smtps).
	SecuritySSL TransportSecurity = "ssl"
)

// Directory configuration defaults, matching Active Directory attribute names.
const (
	DefaultDirectoryPort    = 389
	DefaultUserFilter       = "(sAMAccountName={username})"
	DefaultUsernameAttr     = "sAMAccountName"
	DefaultFirstNameAttr    = "givenName"
	DefaultLastNameAttr     = "sn"
	DefaultEmailAttr        = "mail"
	DefaultGroupFilter      = "(objectClass=group)"
	DefaultUserSyncFilter   = "(&(objectClass=user)(objectCategory=person))"
	DefaultDirectoryTimeout = 10
	UsernamePlaceholder     = "{username}"
	directorySchemeLDAPS    = "ldaps://"
	directorySchemeLDAP     = "ldap://"
	directoryDefaultSSLPort = 636
)

// TenantDirectoryConfig is the directory server configuration of one tenant (country).
// A row with IsGlobal set is the dedicated global-default configuration managed by a
// global administrator and has no tenant.
type TenantDirectoryConfig struct {
	// ID is the unique identifier for the configuration.
	ID uint64 `gorm:"primaryKey"`
	// TenantID is the country code the configuration belongs to. Empty for the global config.
	TenantID string `gorm:"size:8;index"`
	// Name is a descriptive label for the configuration.
	Name string `gorm:"size:100"`
	// Server is the directory host name or IP address. A leading scheme is tolerated.
	Server string `gorm:"size:255;not null"`
	// Port is the TCP port of the directory server.
	Port int `gorm:"not null"`
	// Security is the transport security mode.
	Security TransportSecurity `gorm:"type:varchar(10);not null;default:'none'"`
	// SkipVerify disables TLS certificate verification.
	SkipVerify bool
	// BindDN is the service account used for sync and connection tests.
	BindDN string `gorm:"size:255"`
	// BindCredential is the vault-sealed service account password.
	BindCredential string `gorm:"type:text"`
	// BaseDN is the base search scope, e.g. DC=br,DC=example,DC=com.
	BaseDN string `gorm:"size:500;not null"`
	// UserSearchBase narrows user searches. Falls back to BaseDN.
	UserSearchBase string `gorm:"size:500"`
	// UserFilter is the login search filter template containing {username}.
	UserFilter string `gorm:"size:500"`
	// UsernameAttr is the attribute holding the login name.
	UsernameAttr string `gorm:"size:100"`
	// FirstNameAttr is the attribute mapped onto the user's first name.
	FirstNameAttr string `gorm:"size:100"`
	// LastNameAttr is the attribute mapped onto the user's last name.
	LastNameAttr string `gorm:"size:100"`
	// EmailAttr is the attribute mapped onto the user's email address.
	EmailAttr string `gorm:"size:100"`
	// UPNSuffix overrides the domain used to build the bind principal.
	UPNSuffix string `gorm:"size:255"`
	// GroupFilter selects group objects during sync.
	GroupFilter string `gorm:"size:500"`
	// UserSyncFilter selects person objects during sync.
	UserSyncFilter string `gorm:"size:500"`
	// TimeoutSeconds bounds dial and every directory operation.
	TimeoutSeconds int
	// IsGlobal marks the single global-default configuration.
	IsGlobal bool `gorm:"index"`
	// Active marks the configuration in use. Inactive rows are kept, never deleted.
	Active bool `gorm:"index"`
	// LastTestAt is the time of the last connection test.
	LastTestAt *time.Time
	// LastTestOK is the outcome of the last connection test.
	LastTestOK bool
	// LastTestMessage is the detail of the last connection test.
	LastTestMessage string `gorm:"type:text"`
	// CreatedBy is the user ID of the administrator that created the row.
	CreatedBy *uint64
	// UpdatedBy is the user ID of the administrator that last changed the row.
	UpdatedBy *uint64
	// CreatedAt is the timestamp when the configuration was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the configuration was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the TenantDirectoryConfig model.
func (TenantDirectoryConfig) TableName() string {
	return "tenant_directory_configs"
}

// ApplyDefaults fills empty fields with the Active Directory defaults.
// TimeoutSeconds stays zero so the process wide default applies.
func (c *TenantDirectoryConfig) ApplyDefaults() {
	if c.Security == "" {
		c.Security = SecurityNone
	}

	if c.Port == 0 {
		c.Port = DefaultDirectoryPort
		if c.Security == SecuritySSL {
			c.Port = directoryDefaultSSLPort
		}
	}

	setDefault(&c.UserFilter, DefaultUserFilter)
	setDefault(&c.UsernameAttr, DefaultUsernameAttr)
	setDefault(&c.FirstNameAttr, DefaultFirstNameAttr)
	setDefault(&c.LastNameAttr, DefaultLastNameAttr)
	setDefault(&c.EmailAttr, DefaultEmailAttr)
	setDefault(&c.GroupFilter, DefaultGroupFilter)
	setDefault(&c.UserSyncFilter, DefaultUserSyncFilter)
}

// Host returns the server name without any ldap:// or ldaps:// prefix.
func (c *TenantDirectoryConfig) Host() string {
	host := strings.TrimSpace(c.Server)
	host = strings.TrimPrefix(host, directorySchemeLDAPS)
	host = strings.TrimPrefix(host, directorySchemeLDAP)

	return strings.TrimSuffix(host, "/")
}

// URL returns the dial URL, ldaps:// for SSL and ldap:// otherwise.
func (c *TenantDirectoryConfig) URL() string {
	scheme := directorySchemeLDAP
	if c.Security == SecuritySSL {
		scheme = directorySchemeLDAPS
	}

	return scheme + net.JoinHostPort(c.Host(), strconv.Itoa(c.Port))
}

// Timeout returns the configured operation timeout.
func (c *TenantDirectoryConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultDirectoryTimeout * time.Second
	}

	return time.Duration(c.TimeoutSeconds) * time.Second
}

// UserBase returns the search base used for user lookups.
func (c *TenantDirectoryConfig) UserBase() string {
	if c.UserSearchBase != "" {
		return c.UserSearchBase
	}

	return c.BaseDN
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
