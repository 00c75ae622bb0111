package models

import "errors"

var (
	// ErrUnknownCapability is returned for capability names outside Capabilities.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrInvalidTier is returned when a profile carries an access tier that does not exist.
	ErrInvalidTier = errors.New("invalid access tier")

	// ErrGlobalProfileHasTenant is returned when a global tier profile is bound to a tenant.
	ErrGlobalProfileHasTenant = errors.New("global administrators must not be bound to a tenant")

	// ErrCountryProfileNeedsTenant is returned when a country tier profile has no tenant.
	ErrCountryProfileNeedsTenant = errors.New("country administrators require a tenant")

	// ErrProfileImmutable is returned when tier or tenant of a profile is edited outside re-provisioning.
	ErrProfileImmutable = errors.New("access tier and tenant can only change through re-provisioning")

	// ErrSystemDefaultExists is returned when a second system default row is inserted.
	ErrSystemDefaultExists = errors.New("system default configuration already exists")
)
