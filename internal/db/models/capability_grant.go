package models

import "time"

// ConfigSource tells where a tenant takes a configuration from.
type ConfigSource string

const (
	// SourceOwn means the tenant administrator maintains its own configuration.
	SourceOwn ConfigSource = "own"
	// SourceInheritManual means a global administrator pinned the value for the tenant.
	SourceInheritManual ConfigSource = "inherit_manual"
	// SourceInheritSystemDefault means the SystemDefaultConfig row applies.
	SourceInheritSystemDefault ConfigSource = "inherit_system_default"
)

// Valid reports whether the source is known.
func (s ConfigSource) Valid() bool {
	switch s {
	case SourceOwn, SourceInheritManual, SourceInheritSystemDefault:
		return true
	default:
		return false
	}
}

// TenantCapabilityGrant describes what a country administrator may configure by
// itself and which fallback applies when it may not.
type TenantCapabilityGrant struct {
	// ID is the unique identifier for the grant.
	ID uint64 `gorm:"primaryKey"`
	// ProfileID is the administrator profile the grant belongs to (one-to-one).
	ProfileID uint64 `gorm:"not null;uniqueIndex"`

	// CanConfigureDirectory allows the tenant to maintain its own directory config.
	CanConfigureDirectory bool
	// DirectorySource selects the directory config when the tenant does not configure its own.
	DirectorySource ConfigSource `gorm:"type:varchar(30);not null;default:'own'"`
	// CanConfigureMailRelay allows the tenant to maintain its own mail relay.
	CanConfigureMailRelay bool
	// MailRelaySource selects the relay when the tenant does not configure its own.
	MailRelaySource ConfigSource `gorm:"type:varchar(30);not null;default:'own'"`

	// CanSyncDirectory allows triggering directory sync jobs.
	CanSyncDirectory bool
	// CanAssignPermissions allows toggling mirror capability flags.
	CanAssignPermissions bool
	// CanManageLocalUsers allows managing local accounts of the tenant.
	CanManageLocalUsers bool
	// CanManageSuppliers allows the tenant to govern supplier capabilities.
	CanManageSuppliers bool
	// CanManageContracts allows the tenant to govern the contracts capability.
	CanManageContracts bool
	// CanManageQuality allows the tenant to govern the quality capability.
	CanManageQuality bool

	// CapabilitySource selects the fallback for sub-modules the tenant cannot govern.
	CapabilitySource ConfigSource `gorm:"type:varchar(30);not null;default:'inherit_system_default'"`
	// PinnedCapabilities are the values a global administrator pinned for the tenant.
	PinnedCapabilities CapabilityFlags `gorm:"embedded;embeddedPrefix:pinned_"`

	// CreatedAt is the timestamp when the grant was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the grant was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the TenantCapabilityGrant model.
func (TenantCapabilityGrant) TableName() string {
	return "tenant_capability_grants"
}

// DefaultGrant returns the grant a freshly provisioned country administrator receives.
func DefaultGrant() TenantCapabilityGrant {
	return TenantCapabilityGrant{
		CanConfigureDirectory: false,
		DirectorySource:       SourceOwn,
		CanConfigureMailRelay: false,
		MailRelaySource:       SourceOwn,
		CanSyncDirectory:      true,
		CanAssignPermissions:  true,
		CanManageLocalUsers:   true,
		CanManageSuppliers:    true,
		CanManageContracts:    true,
		CanManageQuality:      true,
		CapabilitySource:      SourceInheritSystemDefault,
	}
}

// Governs reports whether the tenant governs the sub-module a capability belongs to.
func (g *TenantCapabilityGrant) Governs(c Capability) bool {
	switch c {
	case CapabilityCreateSuppliers, CapabilityEditSuppliers, CapabilityDeleteSuppliers:
		return g.CanManageSuppliers
	case CapabilityManageContracts:
		return g.CanManageContracts
	case CapabilityManageQuality:
		return g.CanManageQuality
	case CapabilityLogin:
		return g.CanAssignPermissions
	default:
		return false
	}
}

// EffectiveDirectorySource returns own when the tenant configures itself.
func (g *TenantCapabilityGrant) EffectiveDirectorySource() ConfigSource {
	if g.CanConfigureDirectory {
		return SourceOwn
	}

	return g.DirectorySource
}

// EffectiveMailRelaySource returns own when the tenant configures itself.
func (g *TenantCapabilityGrant) EffectiveMailRelaySource() ConfigSource {
	if g.CanConfigureMailRelay {
		return SourceOwn
	}

	return g.MailRelaySource
}
