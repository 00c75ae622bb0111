package provision

import "errors"

var (
	// ErrInvalidInput is returned when the provisioning input fails validation.
	ErrInvalidInput = errors.New("invalid administrator input")

	// ErrAlreadyAdministrator is returned when the user already holds a profile.
	ErrAlreadyAdministrator = errors.New("user already has an administrator profile")

	// ErrProfileNotFound is returned when no profile exists for the given id.
	ErrProfileNotFound = errors.New("administrator profile not found")
)
