package models

import "fmt"

// Capability is a named permission bit resolved per tenant.
type Capability string

const (
	// CapabilityLogin allows a directory user to sign in to the portal.
	CapabilityLogin Capability = "can_login"
	// CapabilityCreateSuppliers allows creating supplier records.
	CapabilityCreateSuppliers Capability = "can_create_suppliers"
	// CapabilityEditSuppliers allows editing supplier records.
	CapabilityEditSuppliers Capability = "can_edit_suppliers"
	// CapabilityDeleteSuppliers allows deleting supplier records.
	CapabilityDeleteSuppliers Capability = "can_delete_suppliers"
	// CapabilityManageContracts allows managing supplier contracts.
	CapabilityManageContracts Capability = "can_manage_contracts"
	// CapabilityManageQuality allows managing quality records.
	CapabilityManageQuality Capability = "can_manage_quality"
)

// Capabilities lists every known capability in a stable order.
var Capabilities = []Capability{ //nolint:gochecknoglobals
	CapabilityLogin,
	CapabilityCreateSuppliers,
	CapabilityEditSuppliers,
	CapabilityDeleteSuppliers,
	CapabilityManageContracts,
	CapabilityManageQuality,
}

// ParseCapability validates a capability name.
func ParseCapability(name string) (Capability, error) {
	for _, c := range Capabilities {
		if string(c) == name {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// Column returns the database column backing the capability on mirror rows.
func (c Capability) Column() string {
	return string(c)
}

// CapabilityFlags is the bundle of capability bits embedded into mirrors,
// pinned grants and the system default row.
type CapabilityFlags struct {
	CanLogin           bool `json:"can_login"`
	CanCreateSuppliers bool `json:"can_create_suppliers"`
	CanEditSuppliers   bool `json:"can_edit_suppliers"`
	CanDeleteSuppliers bool `json:"can_delete_suppliers"`
	CanManageContracts bool `json:"can_manage_contracts"`
	CanManageQuality   bool `json:"can_manage_quality"`
}

// Get returns the value of a single capability bit.
func (f CapabilityFlags) Get(c Capability) (bool, error) {
	switch c {
	case CapabilityLogin:
		return f.CanLogin, nil
	case CapabilityCreateSuppliers:
		return f.CanCreateSuppliers, nil
	case CapabilityEditSuppliers:
		return f.CanEditSuppliers, nil
	case CapabilityDeleteSuppliers:
		return f.CanDeleteSuppliers, nil
	case CapabilityManageContracts:
		return f.CanManageContracts, nil
	case CapabilityManageQuality:
		return f.CanManageQuality, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCapability, c)
	}
}

// Set changes a single capability bit.
func (f *CapabilityFlags) Set(c Capability, value bool) error {
	switch c {
	case CapabilityLogin:
		f.CanLogin = value
	case CapabilityCreateSuppliers:
		f.CanCreateSuppliers = value
	case CapabilityEditSuppliers:
		f.CanEditSuppliers = value
	case CapabilityDeleteSuppliers:
		f.CanDeleteSuppliers = value
	case CapabilityManageContracts:
		f.CanManageContracts = value
	case CapabilityManageQuality:
		f.CanManageQuality = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCapability, c)
	}

	return nil
}

// Map renders the flags keyed by capability name.
func (f CapabilityFlags) Map() map[Capability]bool {
	out := make(map[Capability]bool, len(Capabilities))
	for _, c := range Capabilities {
		out[c], _ = f.Get(c)
	}

	return out
}
