package models

import "time"

// SyncKind is the object class a sync run mirrors.
type SyncKind string

const (
	// SyncKindGroups mirrors directory groups.
	SyncKindGroups SyncKind = "groups"
	// SyncKindUsers mirrors directory persons.
	SyncKindUsers SyncKind = "users"
	// SyncKindMemberships links user mirrors to group mirrors.
	SyncKindMemberships SyncKind = "memberships"
)

// SyncTrigger records who started a sync run.
type SyncTrigger string

const (
	// SyncTriggerManual is a sync started from the web trigger.
	SyncTriggerManual SyncTrigger = "manual"
	// SyncTriggerScheduled is a sync started by the scheduler.
	SyncTriggerScheduled SyncTrigger = "scheduled"
	// SyncTriggerCLI is a sync started from the command line.
	SyncTriggerCLI SyncTrigger = "cli"
)

// SyncStatus is the outcome of a sync run.
type SyncStatus string

const (
	// SyncStatusRunning is set while the run is in progress.
	SyncStatusRunning SyncStatus = "running"
	// SyncStatusSuccess is set when all rows were committed.
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusFailed is set when the run aborted without committing.
	SyncStatusFailed SyncStatus = "failed"
)

// SyncRun is the history row of one sync invocation.
type SyncRun struct {
	ID         uint64      `gorm:"primaryKey"`
	RunID      string      `gorm:"size:36;uniqueIndex;not null"`
	TenantID   string      `gorm:"size:8;index;not null"`
	Kind       SyncKind    `gorm:"type:varchar(20);not null"`
	Trigger    SyncTrigger `gorm:"type:varchar(20);not null"`
	Status     SyncStatus  `gorm:"type:varchar(20);not null;index"`
	Created    int
	Updated    int
	Error      string `gorm:"type:text"`
	StartedAt  time.Time
	FinishedAt *time.Time
}

// TableName specifies the database table name for the SyncRun model.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// SyncLock is an advisory lock row. The (LockName, LockKey) pair is unique, so
// only one holder can insert it; expired rows may be taken over.
type SyncLock struct {
	ID        uint      `gorm:"primaryKey"`
	LockName  string    `gorm:"uniqueIndex:idx_sync_lock_name_key;size:100;not null"`
	LockKey   string    `gorm:"uniqueIndex:idx_sync_lock_name_key;size:100;not null"`
	LockedBy  string    `gorm:"size:100"`
	LockedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the SyncLock model.
func (SyncLock) TableName() string {
	return "sync_locks"
}
