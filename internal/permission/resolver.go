// Package permission resolves the effective capabilities of a user in a tenant.
//
// The layers are tried in order and the first one that applies decides:
//
//  1. the user's mirror with the individual override set: its own flag
//  2. any active group of the user's mirror granting the capability
//  3. the tenant default from the country administrator's grant
//  4. the system default capabilities
//  5. deny
//
// A tenant that governs the capability's sub-module by itself stops at layer 3
// with a deny: grants then come from user and group data only.
package permission

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/controller/mirror"
	"github.com/supplyconnect/supplyconnect/internal/db/controller/systemdefault"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
)

// Layer names the layer that produced a decision.
type Layer string

const (
	// LayerUserOverride is the user mirror with the individual override set.
	LayerUserOverride Layer = "user_override"
	// LayerGroup is a group of the user's mirror.
	LayerGroup Layer = "group"
	// LayerTenantGoverned means the tenant governs the sub-module and no user or group granted it.
	LayerTenantGoverned Layer = "tenant_governed"
	// LayerTenantPinned is the value a global administrator pinned for the tenant.
	LayerTenantPinned Layer = "tenant_pinned"
	// LayerSystemDefault is the system default capability set.
	LayerSystemDefault Layer = "system_default"
	// LayerDeny means no layer applied.
	LayerDeny Layer = "deny"
)

// Decision is the outcome of resolving one capability.
type Decision struct {
	Capability models.Capability `json:"capability"`
	Granted    bool              `json:"granted"`
	Layer      Layer             `json:"layer"`
}

// Resolver computes capabilities from the mirror tables and tenant grants.
type Resolver struct {
	db *gorm.DB
}

// NewResolver returns a Resolver reading from db.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve reports whether user holds capability in tenantID.
func (r *Resolver) Resolve(ctx context.Context, user *models.User, tenantID string, capability models.Capability) (bool, error) {
	d, err := r.Explain(ctx, user, tenantID, capability)
	if err != nil {
		return false, err
	}

	return d.Granted, nil
}

// Explain resolves capability and reports the deciding layer.
func (r *Resolver) Explain(ctx context.Context, user *models.User, tenantID string, capability models.Capability) (Decision, error) {
	if _, err := models.ParseCapability(string(capability)); err != nil {
		return Decision{}, err
	}

	in, err := r.load(ctx, user, tenantID)
	if err != nil {
		return Decision{}, err
	}

	return in.decide(capability), nil
}

// Effective resolves every known capability at once.
func (r *Resolver) Effective(ctx context.Context, user *models.User, tenantID string) (map[models.Capability]Decision, error) {
	in, err := r.load(ctx, user, tenantID)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Capability]Decision, len(models.Capabilities))
	for _, c := range models.Capabilities {
		out[c] = in.decide(c)
	}

	return out, nil
}

// inputs are the rows one resolution reads, loaded once per call.
type inputs struct {
	mirror        *models.DirectoryUserMirror
	grant         *models.TenantCapabilityGrant
	systemDefault models.CapabilityFlags
	hasDefault    bool
}

func (r *Resolver) load(ctx context.Context, user *models.User, tenantID string) (*inputs, error) {
	db := r.db.WithContext(ctx)
	in := &inputs{}

	var err error

	if user != nil && user.Username != "" && tenantID != "" {
		in.mirror, err = mirror.FindUser(db, tenantID, user.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to load user mirror: %w", err)
		}
	}

	in.grant, err = tenant.GrantFor(db, tenantID)
	if err != nil {
		return nil, err
	}

	in.systemDefault, in.hasDefault, err = systemdefault.Capabilities(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load system defaults: %w", err)
	}

	return in, nil
}

func (in *inputs) decide(c models.Capability) Decision {
	d := Decision{Capability: c, Layer: LayerDeny}

	if in.mirror != nil {
		if in.mirror.IndividualPermissionsOverride {
			d.Granted, _ = in.mirror.Get(c)
			d.Layer = LayerUserOverride

			return d
		}

		// a user no longer listed in the directory keeps no group grants
		if in.mirror.Active {
			for _, g := range in.mirror.Groups {
				if ok, _ := g.Get(c); ok && g.Active {
					d.Granted = true
					d.Layer = LayerGroup

					return d
				}
			}
		}
	}

	if in.grant != nil {
		if in.grant.Governs(c) {
			d.Layer = LayerTenantGoverned
			return d
		}

		if in.grant.CapabilitySource == models.SourceInheritManual {
			d.Granted, _ = in.grant.PinnedCapabilities.Get(c)
			d.Layer = LayerTenantPinned

			return d
		}
	}

	if in.hasDefault {
		d.Granted, _ = in.systemDefault.Get(c)
		d.Layer = LayerSystemDefault
	}

	return d
}
