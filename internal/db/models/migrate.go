// Package models contains database model definitions.
package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&AdministratorProfile{},
		&TenantCapabilityGrant{},
		&TenantDirectoryConfig{},
		&MailRelayConfig{},
		&SystemDefaultConfig{},
		&DirectoryGroupMirror{},
		&DirectoryUserMirror{},
		&DirectoryMembership{},
		&SyncRun{},
		&SyncLock{},
	}
}

// Migrate registers the membership join table and migrates all models.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&DirectoryUserMirror{}, "Groups", &DirectoryMembership{}); err != nil {
		return fmt.Errorf("failed to set up membership join table: %w", err)
	}

	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
