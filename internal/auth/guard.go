package auth

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Principal is an authenticated user with its administrator tier.
// Users without an active profile have an empty Tier.
type Principal struct {
	UserID   uint64
	Username string
	Tier     models.Tier
	// TenantID is the tenant the profile is bound to, or the tenant the user
	// logged in for when it has no profile.
	TenantID string
	// Grant is the capability grant of a country profile.
	Grant *models.TenantCapabilityGrant
}

// IsGlobal reports whether the principal is a global administrator.
func (p *Principal) IsGlobal() bool {
	return p != nil && p.Tier == models.TierGlobal
}

// Guard decides whether a principal may act on a tenant.
type Guard struct {
	db *gorm.DB
}

// NewGuard returns a Guard loading profiles from db.
func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// Principal loads the administrator profile of user. loginTenant is used as the
// tenant of users without a profile.
func (g *Guard) Principal(ctx context.Context, user *models.User, loginTenant string) (*Principal, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrUnauthenticated
	}

	p := &Principal{UserID: user.ID, Username: user.Username, TenantID: loginTenant}

	profile, err := NewLocalProvider(g.db).Profile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if profile != nil {
		p.Tier = profile.Tier
		p.TenantID = profile.TenantID
		p.Grant = profile.Grant
	}

	return p, nil
}

// Allow returns nil when p holds at least the required tier and, unless global,
// is bound to tenantID. An empty tenantID skips the tenant check.
func (g *Guard) Allow(p *Principal, required models.Tier, tenantID string) error {
	if p == nil || p.UserID == 0 {
		return ErrUnauthenticated
	}

	if !p.Tier.Valid() || p.Tier.Rank() < required.Rank() {
		return fmt.Errorf("%w: %s required", ErrForbidden, required)
	}

	if p.IsGlobal() || tenantID == "" {
		return nil
	}

	if p.TenantID != tenantID {
		return ErrTenantMismatch
	}

	return nil
}

// GrantFlag selects one flag of a capability grant.
type GrantFlag func(*models.TenantCapabilityGrant) bool

// Grant flags checked by the administration surfaces.
var (
	CanSyncDirectory      GrantFlag = func(g *models.TenantCapabilityGrant) bool { return g.CanSyncDirectory }      //nolint:gochecknoglobals
	CanAssignPermissions  GrantFlag = func(g *models.TenantCapabilityGrant) bool { return g.CanAssignPermissions }  //nolint:gochecknoglobals
	CanConfigureDirectory GrantFlag = func(g *models.TenantCapabilityGrant) bool { return g.CanConfigureDirectory } //nolint:gochecknoglobals
	CanConfigureMailRelay GrantFlag = func(g *models.TenantCapabilityGrant) bool { return g.CanConfigureMailRelay } //nolint:gochecknoglobals
	CanManageLocalUsers   GrantFlag = func(g *models.TenantCapabilityGrant) bool { return g.CanManageLocalUsers }   //nolint:gochecknoglobals
)

// AllowGrant is Allow for the country tier plus a flag of the principal's grant.
// Global administrators pass without a grant.
func (g *Guard) AllowGrant(p *Principal, tenantID string, flag GrantFlag) error {
	if err := g.Allow(p, models.TierCountry, tenantID); err != nil {
		return err
	}

	if p.IsGlobal() {
		return nil
	}

	if p.Grant == nil || !flag(p.Grant) {
		return ErrCapabilityNotGranted
	}

	return nil
}
