// Package mirror provides the administrator operations on directory mirror rows:
// capability toggles, the individual override and manual group assignment.
//
// Every setter is idempotent and takes the tenant of the acting administrator.
// Rows of another tenant are rejected with ErrCrossTenant. An empty tenant
// skips that check and is reserved for global administrators.
package mirror

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGroupNotFound is returned when a group mirror does not exist.
	ErrGroupNotFound = errors.New("directory group not found")
	// ErrUserNotFound is returned when a user mirror does not exist.
	ErrUserNotFound = errors.New("directory user not found")
	// ErrCrossTenant is returned when a row belongs to another tenant than the caller's.
	ErrCrossTenant = errors.New("directory object belongs to another tenant")
)

// GetGroup retrieves a group mirror by ID, restricted to tenantID.
func GetGroup(db *gorm.DB, tenantID string, id uint64) (*models.DirectoryGroupMirror, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var group models.DirectoryGroupMirror
	if err := db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if tenantID != "" && group.TenantID != tenantID {
		return nil, ErrCrossTenant
	}

	return &group, nil
}

// GetUser retrieves a user mirror by ID with its groups, restricted to tenantID.
func GetUser(db *gorm.DB, tenantID string, id uint64) (*models.DirectoryUserMirror, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.DirectoryUserMirror
	if err := db.Preload("Groups").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if tenantID != "" && user.TenantID != tenantID {
		return nil, ErrCrossTenant
	}

	return &user, nil
}

// FindUser retrieves the user mirror of username in tenantID with its groups.
// A user whose DN changed has several rows; the active one wins, then the newest.
// It returns nil without error when the user has not been mirrored.
func FindUser(db *gorm.DB, tenantID, username string) (*models.DirectoryUserMirror, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.DirectoryUserMirror

	err := db.Preload("Groups").
		Where("tenant_id = ? AND LOWER(username) = LOWER(?)", tenantID, username).
		Order("active desc, id desc").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListGroups returns the group mirrors of tenantID ordered by name.
func ListGroups(db *gorm.DB, tenantID string) ([]models.DirectoryGroupMirror, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.DirectoryGroupMirror
	if err := db.Where("tenant_id = ?", tenantID).Order("name").Find(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

// ListUsers returns the user mirrors of tenantID ordered by username.
func ListUsers(db *gorm.DB, tenantID string) ([]models.DirectoryUserMirror, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.DirectoryUserMirror
	if err := db.Preload("Groups").Where("tenant_id = ?", tenantID).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// SetGroupCapability sets one capability flag of a group mirror.
func SetGroupCapability(
	db *gorm.DB,
	tenantID string,
	id uint64,
	capability models.Capability,
	value bool,
) (*models.DirectoryGroupMirror, error) {
	if _, err := models.ParseCapability(string(capability)); err != nil {
		return nil, err
	}

	group, err := GetGroup(db, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err = db.Model(group).Update(capability.Column(), value).Error; err != nil {
		return nil, fmt.Errorf("failed to update group capability: %w", err)
	}

	_ = group.CapabilityFlags.Set(capability, value)

	return group, nil
}

// SetUserCapability sets one capability flag of a user mirror. The flag only
// takes effect while the individual override is on.
func SetUserCapability(
	db *gorm.DB,
	tenantID string,
	id uint64,
	capability models.Capability,
	value bool,
) (*models.DirectoryUserMirror, error) {
	if _, err := models.ParseCapability(string(capability)); err != nil {
		return nil, err
	}

	user, err := GetUser(db, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err = db.Model(user).Omit("Groups").Update(capability.Column(), value).Error; err != nil {
		return nil, fmt.Errorf("failed to update user capability: %w", err)
	}

	_ = user.CapabilityFlags.Set(capability, value)

	return user, nil
}

// SetUserOverride turns the individual permissions override of a user mirror on or off.
func SetUserOverride(db *gorm.DB, tenantID string, id uint64, value bool) (*models.DirectoryUserMirror, error) {
	user, err := GetUser(db, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err = db.Model(user).Omit("Groups").Update("individual_permissions_override", value).Error; err != nil {
		return nil, fmt.Errorf("failed to update override: %w", err)
	}

	user.IndividualPermissionsOverride = value

	return user, nil
}

// SetUserGroups replaces the group memberships of a user mirror.
// Every group must belong to the user's tenant.
func SetUserGroups(db *gorm.DB, tenantID string, id uint64, groupIDs []uint64) (*models.DirectoryUserMirror, error) {
	user, err := GetUser(db, tenantID, id)
	if err != nil {
		return nil, err
	}

	groups := make([]models.DirectoryGroupMirror, 0, len(groupIDs))
	if len(groupIDs) > 0 {
		if err = db.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
			return nil, err
		}
	}

	if len(groups) != len(unique(groupIDs)) {
		return nil, ErrGroupNotFound
	}

	for _, g := range groups {
		if g.TenantID != user.TenantID {
			return nil, ErrCrossTenant
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(groups) == 0 {
			return tx.Model(user).Association("Groups").Clear()
		}

		return tx.Model(user).Association("Groups").Replace(groups)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace memberships: %w", err)
	}

	user.Groups = groups

	return user, nil
}

func unique(ids []uint64) map[uint64]struct{} {
	out := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}

	return out
}
