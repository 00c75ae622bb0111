package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrTenantNotConfigured is returned when the tenant has no active directory configuration.
	ErrTenantNotConfigured = errors.New("tenant has no active directory configuration")

	// ErrConnectionFailed is returned when the directory server can not be reached.
	ErrConnectionFailed = errors.New("directory connection failed")

	// ErrInvalidCredentials is returned when the directory rejects the bind.
	ErrInvalidCredentials = errors.New("directory rejected the credentials")

	// ErrUserRecordNotFound is returned when the user search yields no entry.
	ErrUserRecordNotFound = errors.New("user record not found in directory")

	// ErrProtocol is returned for any other directory error. The wrapping message carries the detail.
	ErrProtocol = errors.New("directory protocol error")
)

// translate maps a go-ldap error onto the package taxonomy. Only the message of
// the original error is kept.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials):
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, op)
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork),
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnavailable):
		return fmt.Errorf("%w: %s: %s", ErrConnectionFailed, op, err.Error())
	default:
		return fmt.Errorf("%w: %s: %s", ErrProtocol, op, err.Error())
	}
}
