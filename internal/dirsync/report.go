package dirsync

import (
	"fmt"
	"strings"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Report summarises one sync run.
//
// For memberships Created counts links added, Updated counts users whose
// groups changed and Deactivated counts links removed.
type Report struct {
	RunID       string          `json:"run_id"`
	TenantID    string          `json:"tenant_id"`
	Kind        models.SyncKind `json:"kind"`
	Created     int             `json:"created"`
	Updated     int             `json:"updated"`
	Deactivated int             `json:"deactivated"`
}

// String renders the report as "groups: 3 created, 5 updated".
func (r Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %d created, %d updated", r.Kind, r.Created, r.Updated)

	if r.Deactivated > 0 {
		if r.Kind == models.SyncKindMemberships {
			fmt.Fprintf(&b, ", %d removed", r.Deactivated)
		} else {
			fmt.Fprintf(&b, ", %d deactivated", r.Deactivated)
		}
	}

	return b.String()
}
