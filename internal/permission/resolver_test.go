package permission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/dbtest"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

const tenantBR = "BR"

type world struct {
	db       *gorm.DB
	user     *models.User
	mirror   *models.DirectoryUserMirror
	resolver *Resolver
}

func newWorld(t *testing.T) *world {
	t.Helper()

	db := dbtest.Open(t)

	user := &models.User{Username: "maria", Password: models.UnusablePassword, Active: true, TenantID: tenantBR}
	require.NoError(t, db.Create(user).Error)

	return &world{db: db, user: user, resolver: NewResolver(db)}
}

func (w *world) withMirror(t *testing.T, override bool, flags models.CapabilityFlags, groups ...models.CapabilityFlags) *world {
	t.Helper()

	w.mirror = &models.DirectoryUserMirror{
		TenantID:                      tenantBR,
		DistinguishedName:             "CN=Maria,DC=br,DC=example,DC=com",
		Username:                      "maria",
		Active:                        true,
		IndividualPermissionsOverride: override,
		CapabilityFlags:               flags,
	}
	require.NoError(t, w.db.Create(w.mirror).Error)

	for i, g := range groups {
		group := models.DirectoryGroupMirror{
			TenantID:          tenantBR,
			DistinguishedName: "CN=G" + string(rune('A'+i)) + ",DC=br,DC=example,DC=com",
			Name:              "G" + string(rune('A'+i)),
			Active:            true,
			CapabilityFlags:   g,
		}
		require.NoError(t, w.db.Create(&group).Error)
		require.NoError(t, w.db.Model(w.mirror).Association("Groups").Append(&group))
	}

	return w
}

func (w *world) withGrant(t *testing.T, mutate func(*models.TenantCapabilityGrant)) *world {
	t.Helper()

	grant := models.DefaultGrant()
	mutate(&grant)
	dbtest.CountryAdmin(t, w.db, tenantBR, grant)

	return w
}

func (w *world) withSystemDefault(t *testing.T, flags models.CapabilityFlags) *world {
	t.Helper()

	require.NoError(t, w.db.Create(&models.SystemDefaultConfig{DefaultCapabilities: flags}).Error)

	return w
}

func TestResolve_Precedence(t *testing.T) {
	testCases := []struct {
		name          string
		setup         func(t *testing.T, w *world)
		capability    models.Capability
		expected      bool
		expectedLayer Layer
	}{
		{
			name: "override denies although the only group grants",
			setup: func(t *testing.T, w *world) {
				w.withMirror(t, true,
					models.CapabilityFlags{CanManageContracts: false},
					models.CapabilityFlags{CanManageContracts: true})
			},
			capability:    models.CapabilityManageContracts,
			expected:      false,
			expectedLayer: LayerUserOverride,
		},
		{
			name: "override grants although no group does",
			setup: func(t *testing.T, w *world) {
				w.withMirror(t, true, models.CapabilityFlags{CanLogin: true}, models.CapabilityFlags{})
			},
			capability:    models.CapabilityLogin,
			expected:      true,
			expectedLayer: LayerUserOverride,
		},
		{
			name: "own flags are ignored without override",
			setup: func(t *testing.T, w *world) {
				w.withMirror(t, false, models.CapabilityFlags{CanLogin: true})
			},
			capability:    models.CapabilityLogin,
			expected:      false,
			expectedLayer: LayerDeny,
		},
		{
			name: "union of groups grants",
			setup: func(t *testing.T, w *world) {
				w.withMirror(t, false, models.CapabilityFlags{},
					models.CapabilityFlags{CanEditSuppliers: true},
					models.CapabilityFlags{CanEditSuppliers: false})
			},
			capability:    models.CapabilityEditSuppliers,
			expected:      true,
			expectedLayer: LayerGroup,
		},
		{
			name: "governed sub-module denies without user or group grant",
			setup: func(t *testing.T, w *world) {
				w.withMirror(t, false, models.CapabilityFlags{}, models.CapabilityFlags{})
				w.withGrant(t, func(g *models.TenantCapabilityGrant) {
					g.CanManageQuality = true
				})
				w.withSystemDefault(t, models.CapabilityFlags{CanManageQuality: true})
			},
			capability:    models.CapabilityManageQuality,
			expected:      false,
			expectedLayer: LayerTenantGoverned,
		},
		{
			name: "pinned value when the tenant does not govern",
			setup: func(t *testing.T, w *world) {
				w.withGrant(t, func(g *models.TenantCapabilityGrant) {
					g.CanManageSuppliers = false
					g.CapabilitySource = models.SourceInheritManual
					g.PinnedCapabilities.CanDeleteSuppliers = true
				})
				w.withSystemDefault(t, models.CapabilityFlags{})
			},
			capability:    models.CapabilityDeleteSuppliers,
			expected:      true,
			expectedLayer: LayerTenantPinned,
		},
		{
			name: "system default when the tenant inherits it",
			setup: func(t *testing.T, w *world) {
				w.withGrant(t, func(g *models.TenantCapabilityGrant) {
					g.CanManageContracts = false
				})
				w.withSystemDefault(t, models.CapabilityFlags{CanManageContracts: true})
			},
			capability:    models.CapabilityManageContracts,
			expected:      true,
			expectedLayer: LayerSystemDefault,
		},
		{
			name: "system default without any grant",
			setup: func(t *testing.T, w *world) {
				w.withSystemDefault(t, models.CapabilityFlags{CanLogin: true})
			},
			capability:    models.CapabilityLogin,
			expected:      true,
			expectedLayer: LayerSystemDefault,
		},
		{
			name:          "nothing applies",
			setup:         func(*testing.T, *world) {},
			capability:    models.CapabilityLogin,
			expected:      false,
			expectedLayer: LayerDeny,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld(t)
			tc.setup(t, w)

			d, err := w.resolver.Explain(context.Background(), w.user, tenantBR, tc.capability)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d.Granted)
			assert.Equal(t, tc.expectedLayer, d.Layer)

			granted, err := w.resolver.Resolve(context.Background(), w.user, tenantBR, tc.capability)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, granted)
		})
	}
}

func TestResolve_InactiveGroupsDoNotGrant(t *testing.T) {
	w := newWorld(t).withMirror(t, false, models.CapabilityFlags{}, models.CapabilityFlags{CanLogin: true})

	require.NoError(t, w.db.Model(&models.DirectoryGroupMirror{}).Where("tenant_id = ?", tenantBR).
		Update("active", false).Error)

	granted, err := w.resolver.Resolve(context.Background(), w.user, tenantBR, models.CapabilityLogin)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestResolve_OtherTenantMirrorIsIgnored(t *testing.T) {
	w := newWorld(t).withMirror(t, true, models.CapabilityFlags{CanLogin: true})

	granted, err := w.resolver.Resolve(context.Background(), w.user, "AR", models.CapabilityLogin)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestResolve_UnknownCapability(t *testing.T) {
	w := newWorld(t)

	_, err := w.resolver.Resolve(context.Background(), w.user, tenantBR, models.Capability("can_fly"))
	require.ErrorIs(t, err, models.ErrUnknownCapability)
}

func TestEffective(t *testing.T) {
	w := newWorld(t).
		withMirror(t, false, models.CapabilityFlags{}, models.CapabilityFlags{CanLogin: true, CanCreateSuppliers: true})
	w.withSystemDefault(t, models.CapabilityFlags{CanManageQuality: true})

	decisions, err := w.resolver.Effective(context.Background(), w.user, tenantBR)
	require.NoError(t, err)
	require.Len(t, decisions, len(models.Capabilities))

	assert.Equal(t, Decision{Capability: models.CapabilityLogin, Granted: true, Layer: LayerGroup}, decisions[models.CapabilityLogin])
	assert.True(t, decisions[models.CapabilityCreateSuppliers].Granted)
	assert.Equal(t, LayerSystemDefault, decisions[models.CapabilityManageQuality].Layer)
	assert.True(t, decisions[models.CapabilityManageQuality].Granted)
	assert.False(t, decisions[models.CapabilityDeleteSuppliers].Granted)
}

func TestResolve_MovedUserUsesActiveMirror(t *testing.T) {
	w := newWorld(t).withMirror(t, false, models.CapabilityFlags{}, models.CapabilityFlags{CanManageContracts: true})

	// the row left behind by the old DN, deactivated by the user sync
	stale := &models.DirectoryUserMirror{
		TenantID:                      tenantBR,
		DistinguishedName:             "CN=Maria,OU=Old,DC=br,DC=example,DC=com",
		Username:                      "maria",
		IndividualPermissionsOverride: true,
	}
	require.NoError(t, w.db.Create(stale).Error)
	require.NoError(t, w.db.Model(stale).Update("active", false).Error)

	d, err := w.resolver.Explain(context.Background(), w.user, tenantBR, models.CapabilityManageContracts)
	require.NoError(t, err)
	assert.True(t, d.Granted)
	assert.Equal(t, LayerGroup, d.Layer)
}
