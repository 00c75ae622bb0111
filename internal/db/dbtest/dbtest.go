// Package dbtest opens migrated in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Open returns a fresh, fully migrated in-memory sqlite database.
// Every call gets its own named shared-cache database so parallel connections
// of the pool see the same tables.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, models.Migrate(db), "failed to migrate test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// sqlite shared cache locks whole tables, a single connection avoids
	// SQLITE_LOCKED between a transaction and concurrent reads
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CountryAdmin inserts an active country administrator of tenantID holding grant.
func CountryAdmin(t *testing.T, db *gorm.DB, tenantID string, grant models.TenantCapabilityGrant) *models.AdministratorProfile {
	t.Helper()

	user := models.User{
		Username: "admin-" + tenantID + "-" + uuid.NewString()[:8],
		Password: models.UnusablePassword,
		TenantID: tenantID,
		IsStaff:  true,
		Active:   true,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := models.AdministratorProfile{
		UserID:   user.ID,
		Tier:     models.TierCountry,
		TenantID: tenantID,
		Active:   true,
		Grant:    &grant,
	}
	require.NoError(t, db.Create(&profile).Error)

	profile.User = user

	return &profile
}
