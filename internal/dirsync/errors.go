package dirsync

import "errors"

var (
	// ErrSyncInProgress is returned when another holder owns the tenant's sync lock.
	ErrSyncInProgress = errors.New("a directory sync is already running for this tenant")

	// ErrSyncAborted is returned when the fetch or the write phase failed. Nothing was committed.
	ErrSyncAborted = errors.New("directory sync aborted")

	// ErrUnknownKind is returned for sync kinds other than groups, users and memberships.
	ErrUnknownKind = errors.New("unknown sync kind")
)
