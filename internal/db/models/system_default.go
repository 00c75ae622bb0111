package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemDefaultConfig is the singleton row holding the fallback directory and
// mail relay settings plus the system wide capability defaults.
type SystemDefaultConfig struct {
	ID uint64 `gorm:"primaryKey"`

	DirectoryEnabled        bool
	DirectoryServer         string            `gorm:"size:255"`
	DirectoryPort           int
	DirectorySecurity       TransportSecurity `gorm:"type:varchar(10)"`
	DirectoryBindDN         string            `gorm:"size:255"`
	DirectoryBindCredential string            `gorm:"type:text"`
	DirectoryBaseDN         string            `gorm:"size:500"`
	DirectoryUserSearchBase string            `gorm:"size:500"`
	DirectoryUserFilter     string            `gorm:"size:500"`

	MailEnabled    bool
	MailHost       string            `gorm:"size:255"`
	MailPort       int
	MailEncryption TransportSecurity `gorm:"type:varchar(10)"`
	MailUsername   string            `gorm:"size:255"`
	MailCredential string            `gorm:"type:text"`
	MailFromEmail  string            `gorm:"size:255"`

	// DefaultCapabilities apply when no tenant grant exists or it inherits the system default.
	DefaultCapabilities CapabilityFlags `gorm:"embedded;embeddedPrefix:default_"`

	UpdatedBy *uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the SystemDefaultConfig model.
func (SystemDefaultConfig) TableName() string {
	return "system_default_configs"
}

// BeforeCreate rejects a second row.
func (s *SystemDefaultConfig) BeforeCreate(tx *gorm.DB) error {
	var count int64
	if err := tx.Session(&gorm.Session{NewDB: true}).Model(&SystemDefaultConfig{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrSystemDefaultExists
	}

	return nil
}

// DirectoryConfig renders the directory defaults as a tenant configuration.
// The returned row is never persisted.
func (s *SystemDefaultConfig) DirectoryConfig() *TenantDirectoryConfig {
	cfg := &TenantDirectoryConfig{
		Name:           "system default",
		Server:         s.DirectoryServer,
		Port:           s.DirectoryPort,
		Security:       s.DirectorySecurity,
		BindDN:         s.DirectoryBindDN,
		BindCredential: s.DirectoryBindCredential,
		BaseDN:         s.DirectoryBaseDN,
		UserSearchBase: s.DirectoryUserSearchBase,
		UserFilter:     s.DirectoryUserFilter,
		IsGlobal:       true,
		Active:         s.DirectoryEnabled,
	}
	cfg.ApplyDefaults()

	return cfg
}

// MailRelayConfig renders the mail defaults as a relay configuration.
// The returned row is never persisted.
func (s *SystemDefaultConfig) MailRelayConfig() *MailRelayConfig {
	cfg := &MailRelayConfig{
		Name:       "system default",
		Host:       s.MailHost,
		Port:       s.MailPort,
		Encryption: s.MailEncryption,
		Username:   s.MailUsername,
		Credential: s.MailCredential,
		FromEmail:  s.MailFromEmail,
		IsGlobal:   true,
		Active:     s.MailEnabled,
	}
	cfg.ApplyDefaults()

	return cfg
}
