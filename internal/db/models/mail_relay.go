package models

import (
	"net"
	"strconv"
	"time"
)

// Mail relay defaults.
const (
	DefaultMailPort     = 587
	DefaultMailFromName = "SupplyConnect"
	DefaultMailTimeout  = 10
)

// MailRelayConfig is the outbound mail relay (SMTP) configuration of one tenant.
// Same activation rules as TenantDirectoryConfig: one active row per tenant and
// one global fallback row.
type MailRelayConfig struct {
	ID       uint64 `gorm:"primaryKey"`
	TenantID string `gorm:"size:8;index"`
	Name     string `gorm:"size:100"`
	Host     string `gorm:"size:255;not null"`
	Port     int    `gorm:"not null"`
	// Encryption is none, starttls or ssl (implicit TLS).
	Encryption TransportSecurity `gorm:"type:varchar(10);not null;default:'starttls'"`
	Username   string            `gorm:"size:255"`
	// Credential is the vault-sealed relay password.
	Credential     string `gorm:"type:text"`
	FromEmail      string `gorm:"size:255;not null"`
	FromName       string `gorm:"size:100"`
	TimeoutSeconds int
	IsGlobal       bool `gorm:"index"`
	Active         bool `gorm:"index"`

	LastTestAt      *time.Time
	LastTestOK      bool
	LastTestMessage string `gorm:"type:text"`

	CreatedBy *uint64
	UpdatedBy *uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the MailRelayConfig model.
func (MailRelayConfig) TableName() string {
	return "mail_relay_configs"
}

// ApplyDefaults fills empty fields with relay defaults.
func (c *MailRelayConfig) ApplyDefaults() {
	if c.Encryption == "" {
		c.Encryption = SecurityStartTLS
	}

	if c.Port == 0 {
		c.Port = DefaultMailPort
	}

	setDefault(&c.FromName, DefaultMailFromName)

	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultMailTimeout
	}
}

// Addr returns host:port.
func (c *MailRelayConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeout returns the configured dial timeout.
func (c *MailRelayConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultMailTimeout * time.Second
	}

	return time.Duration(c.TimeoutSeconds) * time.Second
}
