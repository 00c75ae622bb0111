// Package dirsync mirrors directory groups, persons and memberships of a tenant
// into the local database.
//
// Every run resolves the tenant configuration, takes the tenant's advisory
// lock, fetches everything from the directory and only then writes, in a single
// transaction. A failed fetch leaves the mirror tables untouched.
//
// Scheduler runs the syncs periodically for every tenant with a country administrator.
package dirsync
