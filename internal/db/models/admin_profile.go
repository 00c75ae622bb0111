package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Tier is the access tier of an administrator profile.
type Tier string

const (
	// TierGlobal administers every tenant.
	TierGlobal Tier = "global"
	// TierCountry administers exactly one tenant.
	TierCountry Tier = "country"
	// TierManager is a tenant manager.
	TierManager Tier = "manager"
	// TierUser is a plain back-office user.
	TierUser Tier = "user"
)

// Rank orders tiers, higher is more privileged. Unknown tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case TierGlobal:
		return 4 //nolint:mnd
	case TierCountry:
		return 3 //nolint:mnd
	case TierManager:
		return 2 //nolint:mnd
	case TierUser:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the tier is known.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// AdministratorProfile grants back-office access to a local user.
type AdministratorProfile struct {
	// ID is the unique identifier for the profile.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the local user this profile belongs to (one-to-one).
	UserID uint64 `gorm:"not null;uniqueIndex"`
	// User is the associated local user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Tier is the access tier. Immutable outside re-provisioning.
	Tier Tier `gorm:"type:varchar(20);not null"`
	// TenantID is required for country tier and forbidden for global tier.
	TenantID string `gorm:"size:8;index"`
	// Active disables the profile without removing it.
	Active bool
	// CreatedByID is the user that provisioned the profile, nil for bootstrap.
	CreatedByID *uint64
	// Grant is the capability grant of the profile.
	Grant *TenantCapabilityGrant `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the profile was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the profile was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AdministratorProfile model.
func (AdministratorProfile) TableName() string {
	return "administrator_profiles"
}

// Validate checks the tier and tenant invariants.
func (p *AdministratorProfile) Validate() error {
	if !p.Tier.Valid() {
		return ErrInvalidTier
	}

	if p.Tier == TierGlobal && p.TenantID != "" {
		return ErrGlobalProfileHasTenant
	}

	if p.Tier == TierCountry && p.TenantID == "" {
		return ErrCountryProfileNeedsTenant
	}

	return nil
}

// AdministersTenant reports whether the profile may administer the given tenant.
func (p *AdministratorProfile) AdministersTenant(tenantID string) bool {
	if !p.Active {
		return false
	}

	return p.Tier == TierGlobal || (p.TenantID != "" && p.TenantID == tenantID)
}

// BeforeCreate validates the profile invariants.
func (p *AdministratorProfile) BeforeCreate(_ *gorm.DB) error {
	return p.Validate()
}

// BeforeUpdate rejects tier or tenant changes unless the statement runs
// under WithReprovision. Only Update/Updates calls are detected.
func (p *AdministratorProfile) BeforeUpdate(tx *gorm.DB) error {
	if !tx.Statement.Changed("Tier", "TenantID") {
		return nil
	}

	if !isReprovision(tx.Statement.Context) {
		return ErrProfileImmutable
	}

	return nil
}

type reprovisionKey struct{}

// WithReprovision marks ctx as an explicit re-provisioning action.
func WithReprovision(ctx context.Context) context.Context {
	return context.WithValue(ctx, reprovisionKey{}, true)
}

func isReprovision(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	v, _ := ctx.Value(reprovisionKey{}).(bool)

	return v
}
