// Package directory talks to the LDAP / Active Directory server of a tenant.
//
// The Connector authenticates a user by binding with the user's own credentials
// and reading the user's entry, and fetches groups and persons for the sync job
// with the tenant's service account.
//
// Every go-ldap error is translated into the sentinel errors of this package
// before it is returned, so callers only deal with:
//
//	ErrTenantNotConfigured  no active configuration for the tenant, nothing was dialed
//	ErrConnectionFailed     dial, TLS or network failure
//	ErrInvalidCredentials   the bind was rejected
//	ErrUserRecordNotFound   the bind worked but the search returned no entry
//	ErrProtocol             any other directory error, including missing mapped attributes
//
// All connections are bounded by the configured timeout and closed on every path.
package directory
