package models

import "time"

// DirectoryGroupMirror is the local copy of a directory group of one tenant.
// Identity columns are written by the sync job, CapabilityFlags and Active
// toggles by the tenant administrator.
type DirectoryGroupMirror struct {
	// ID is the unique identifier for the mirror row.
	ID uint64 `gorm:"primaryKey"`
	// TenantID is the owning tenant. Unique together with DistinguishedName.
	TenantID string `gorm:"size:8;not null;uniqueIndex:idx_group_mirror_tenant_dn"`
	// DistinguishedName is the group DN in the directory.
	DistinguishedName string `gorm:"size:500;not null;uniqueIndex:idx_group_mirror_tenant_dn"`
	// Name is the display name (cn or name attribute).
	Name string `gorm:"size:255"`
	// AccountName is the sAMAccountName of the group.
	AccountName string `gorm:"size:255"`
	// Description is the directory description of the group.
	Description string `gorm:"type:text"`
	// MemberCount is the number of member values seen at the last sync.
	MemberCount int
	// Active is set by every sync that sees the group.
	Active bool
	// LastSyncAt is the time the sync job last wrote the row.
	LastSyncAt *time.Time

	CapabilityFlags `gorm:"embedded"`

	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DirectoryGroupMirror model.
func (DirectoryGroupMirror) TableName() string {
	return "directory_group_mirrors"
}

// DirectoryUserMirror is the local copy of a directory person of one tenant.
type DirectoryUserMirror struct {
	// ID is the unique identifier for the mirror row.
	ID uint64 `gorm:"primaryKey"`
	// TenantID is the owning tenant. Unique together with DistinguishedName.
	TenantID string `gorm:"size:8;not null;uniqueIndex:idx_user_mirror_tenant_dn;index:idx_user_mirror_tenant_username"`
	// DistinguishedName is the user DN in the directory.
	DistinguishedName string `gorm:"size:500;not null;uniqueIndex:idx_user_mirror_tenant_dn"`
	// Username is the login name (sAMAccountName).
	Username string `gorm:"size:150;not null;index:idx_user_mirror_tenant_username"`
	// FirstName is the given name.
	FirstName string `gorm:"size:150"`
	// LastName is the surname.
	LastName string `gorm:"size:150"`
	// DisplayName is the directory display name.
	DisplayName string `gorm:"size:255"`
	// Email is the mail attribute.
	Email string `gorm:"size:255"`
	// Department is the department attribute.
	Department string `gorm:"size:255"`
	// Title is the job title attribute.
	Title string `gorm:"size:255"`
	// Groups are the group mirrors the user belongs to. Not written by the user sync.
	Groups []DirectoryGroupMirror `gorm:"many2many:directory_memberships"`
	// Active is set by every sync that sees the user.
	Active bool
	// LastSyncAt is the time the sync job last wrote the row.
	LastSyncAt *time.Time
	// IndividualPermissionsOverride makes the row's own CapabilityFlags authoritative.
	IndividualPermissionsOverride bool

	CapabilityFlags `gorm:"embedded"`

	// CreatedAt is the timestamp when the row was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the row was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DirectoryUserMirror model.
func (DirectoryUserMirror) TableName() string {
	return "directory_user_mirrors"
}

// DirectoryMembership is the join row between user and group mirrors.
type DirectoryMembership struct {
	// DirectoryUserMirrorID is the user side of the membership.
	DirectoryUserMirrorID uint64 `gorm:"primaryKey"`
	// DirectoryGroupMirrorID is the group side of the membership.
	DirectoryGroupMirrorID uint64 `gorm:"primaryKey"`
	// CreatedAt is the timestamp when the membership was recorded (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the DirectoryMembership model.
func (DirectoryMembership) TableName() string {
	return "directory_memberships"
}
