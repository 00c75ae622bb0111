// Package auth provides the session middleware of the web API.
//
// The middleware reads the session cookie, reloads the user and builds the
// auth.Principal the handlers pass to auth.Guard. It also stores tenant and
// username for the access log.
//
// Usage:
//
//	admin := app.Group("/admin", authmiddleware.New(guard, users))
//
// Tier and tenant checks are not done here; handlers call the guard with the
// tenant they act on.
package auth
