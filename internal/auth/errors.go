package auth

import "errors"

var (
	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrLoginNotPermitted is returned when login capability enforcement denies a directory user.
	ErrLoginNotPermitted = errors.New("login not permitted for this tenant")

	// ErrEmptyIdentity is returned when reconciling an identity without username.
	ErrEmptyIdentity = errors.New("directory identity has no username")

	// ErrUnauthenticated is returned by the guard when no principal is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned by the guard when the principal's tier is too low.
	ErrForbidden = errors.New("insufficient access tier")

	// ErrTenantMismatch is returned by the guard when a tenant bound principal
	// acts on another tenant.
	ErrTenantMismatch = errors.New("principal does not administer this tenant")

	// ErrCapabilityNotGranted is returned by the guard when the tenant grant lacks a flag.
	ErrCapabilityNotGranted = errors.New("tenant grant does not allow this action")
)
