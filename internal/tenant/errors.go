package tenant

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration misses required fields.
	ErrInvalidConfig = errors.New("invalid tenant configuration")

	// ErrGlobalConfigExists is returned when a second global configuration is saved.
	ErrGlobalConfigExists = errors.New("a global configuration already exists")

	// ErrConfigNotFound is returned when a configuration ID does not exist.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrMailRelayNotConfigured is returned when no mail relay applies to the tenant.
	ErrMailRelayNotConfigured = errors.New("tenant has no active mail relay configuration")

	// ErrMailRelayFailed is returned when the relay can not be reached or rejects the login.
	ErrMailRelayFailed = errors.New("mail relay test failed")
)
