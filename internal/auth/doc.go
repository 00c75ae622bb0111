// Package auth turns credentials into local users and decides what an
// authenticated principal may administer.
//
// # Login
//
// LoginService authenticates a login request for a selected tenant. Users
// holding an active administrator profile for that tenant, and global
// administrators, are checked against their local argon2id password only.
// Everybody else is authenticated by the tenant's directory and then
// reconciled onto a local user by the Reconciler.
//
// Callers must not tell the failure reasons apart towards the end user:
// every error of Login maps to the same "invalid username or password" message.
//
// # Access guard
//
// Guard is independent of any HTTP framework. It answers whether a Principal
// holding an access tier may act on a tenant:
//
//	p, err := guard.Principal(ctx, user)
//	if err := guard.Allow(p, models.TierCountry, "BR"); err != nil {
//	    // ErrUnauthenticated, ErrForbidden or ErrTenantMismatch
//	}
//
// AllowGrant additionally checks a flag of the tenant's capability grant.
package auth
