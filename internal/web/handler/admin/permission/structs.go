package permission

import (
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// ToggleRequest is the body of the idempotent setters.
type ToggleRequest struct {
	Value *bool `json:"value"`
}

// GroupsRequest is the body of the membership setter.
type GroupsRequest struct {
	GroupIDs []uint64 `json:"group_ids"`
}

// Group is the JSON view of a group mirror.
type Group struct {
	ID           uint64                     `json:"id"`
	TenantID     string                     `json:"tenant"`
	DN           string                     `json:"dn"`
	Name         string                     `json:"name"`
	MemberCount  int                        `json:"member_count"`
	Active       bool                       `json:"active"`
	Capabilities map[models.Capability]bool `json:"capabilities"`
}

// User is the JSON view of a user mirror.
type User struct {
	ID           uint64                     `json:"id"`
	TenantID     string                     `json:"tenant"`
	DN           string                     `json:"dn"`
	Username     string                     `json:"username"`
	Email        string                     `json:"email"`
	Active       bool                       `json:"active"`
	Override     bool                       `json:"individual_permissions_override"`
	GroupIDs     []uint64                   `json:"group_ids"`
	Capabilities map[models.Capability]bool `json:"capabilities"`
}

func groupView(g *models.DirectoryGroupMirror) Group {
	return Group{
		ID:           g.ID,
		TenantID:     g.TenantID,
		DN:           g.DistinguishedName,
		Name:         g.Name,
		MemberCount:  g.MemberCount,
		Active:       g.Active,
		Capabilities: g.CapabilityFlags.Map(),
	}
}

func userView(u *models.DirectoryUserMirror) User {
	ids := make([]uint64, 0, len(u.Groups))
	for _, g := range u.Groups {
		ids = append(ids, g.ID)
	}

	return User{
		ID:           u.ID,
		TenantID:     u.TenantID,
		DN:           u.DistinguishedName,
		Username:     u.Username,
		Email:        u.Email,
		Active:       u.Active,
		Override:     u.IndividualPermissionsOverride,
		GroupIDs:     ids,
		Capabilities: u.CapabilityFlags.Map(),
	}
}
