// Package tenant stores the per-country directory and mail relay configuration
// and resolves which configuration is effective for a tenant.
//
// A tenant either maintains its own configuration or inherits one, as decided
// by the capability grant of its country administrator:
//
//	own                     the tenant's active, non-global row
//	inherit_manual          the global row maintained by a global administrator
//	inherit_system_default  the SystemDefaultConfig singleton
package tenant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/controller/systemdefault"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
)

// Sealer seals credentials before they are written.
type Sealer interface {
	Seal(plaintext string) (string, error)
	OpenStrict(token string) (string, error)
}

// Store reads and writes tenant configuration rows.
type Store struct {
	db    *gorm.DB
	vault Sealer
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB, vault Sealer) *Store {
	return &Store{db: db, vault: vault}
}

// Grant returns the capability grant of the tenant's active country administrator.
// It returns nil without error when the tenant has no such administrator.
// With several country administrators the oldest profile wins.
func (s *Store) Grant(ctx context.Context, tenantID string) (*models.TenantCapabilityGrant, error) {
	return GrantFor(s.db.WithContext(ctx), tenantID)
}

// GrantFor is Grant for callers holding a *gorm.DB, such as the permission resolver.
func GrantFor(db *gorm.DB, tenantID string) (*models.TenantCapabilityGrant, error) {
	if tenantID == "" {
		return nil, nil //nolint:nilnil
	}

	var profile models.AdministratorProfile

	err := db.Preload("Grant").
		Where("tier = ? AND tenant_id = ? AND active = ?", models.TierCountry, tenantID, true).
		Order("id").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load tenant grant: %w", err)
	}

	return profile.Grant, nil
}

// Tenants returns the tenant IDs that have an active country administrator or
// an active directory config of their own, sorted and without duplicates.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)

	var administered, configured []string

	err := db.Model(&models.AdministratorProfile{}).
		Where("tier = ? AND active = ? AND tenant_id <> ''", models.TierCountry, true).
		Distinct().Pluck("tenant_id", &administered).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	err = db.Model(&models.TenantDirectoryConfig{}).
		Where("active = ? AND is_global = ? AND tenant_id <> ''", true, false).
		Distinct().Pluck("tenant_id", &configured).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	tenants := append(administered, configured...) //nolint:gocritic
	slices.Sort(tenants)

	return slices.Compact(tenants), nil
}

// DirectoryConfig returns the effective directory configuration of tenantID.
// It implements directory.ConfigSource.
func (s *Store) DirectoryConfig(ctx context.Context, tenantID string) (*models.TenantDirectoryConfig, error) {
	grant, err := s.Grant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	source := models.SourceOwn
	if grant != nil {
		source = grant.EffectiveDirectorySource()
	}

	db := s.db.WithContext(ctx)

	var cfg models.TenantDirectoryConfig

	switch source {
	case models.SourceInheritManual:
		err = db.Where("is_global = ? AND active = ?", true, true).Order("id").First(&cfg).Error
	case models.SourceInheritSystemDefault:
		return s.systemDirectory(db, tenantID)
	default:
		err = db.Where("tenant_id = ? AND is_global = ? AND active = ?", tenantID, false, true).
			Order("id desc").First(&cfg).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: tenant %s (%s)", directory.ErrTenantNotConfigured, tenantID, source)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load directory config: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

func (s *Store) systemDirectory(db *gorm.DB, tenantID string) (*models.TenantDirectoryConfig, error) {
	def, err := systemdefault.Get(db)
	if errors.Is(err, systemdefault.ErrNotFound) {
		return nil, fmt.Errorf("%w: tenant %s (no system default)", directory.ErrTenantNotConfigured, tenantID)
	}

	if err != nil {
		return nil, err
	}

	cfg := def.DirectoryConfig()
	if !cfg.Active {
		return nil, fmt.Errorf("%w: tenant %s (system default disabled)", directory.ErrTenantNotConfigured, tenantID)
	}

	return cfg, nil
}

// DirectoryConfigs lists every directory configuration row of tenantID,
// active or not. An empty tenantID lists the global rows.
func (s *Store) DirectoryConfigs(ctx context.Context, tenantID string) ([]models.TenantDirectoryConfig, error) {
	var configs []models.TenantDirectoryConfig

	q := s.db.WithContext(ctx).Order("id")
	if tenantID == "" {
		q = q.Where("is_global = ?", true)
	} else {
		q = q.Where("tenant_id = ? AND is_global = ?", tenantID, false)
	}

	if err := q.Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list directory configs: %w", err)
	}

	return configs, nil
}

// SaveDirectoryConfig creates or updates cfg. A non-empty password is sealed
// into BindCredential, an empty one keeps the stored credential.
// Saving an active row deactivates the other rows of the same tenant.
func (s *Store) SaveDirectoryConfig(
	ctx context.Context,
	cfg *models.TenantDirectoryConfig,
	password string,
	actorID *uint64,
) error {
	cfg.Server = strings.TrimSpace(cfg.Server)
	cfg.BaseDN = strings.TrimSpace(cfg.BaseDN)

	if cfg.Server == "" || cfg.BaseDN == "" {
		return fmt.Errorf("%w: server and base DN are required", ErrInvalidConfig)
	}

	if err := checkScope(cfg.IsGlobal, cfg.TenantID); err != nil {
		return err
	}

	if !strings.Contains(cfg.UserFilter, models.UsernamePlaceholder) && cfg.UserFilter != "" {
		return fmt.Errorf("%w: user filter must contain %s", ErrInvalidConfig, models.UsernamePlaceholder)
	}

	cfg.ApplyDefaults()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TenantDirectoryConfig
		if cfg.ID != 0 {
			if err := tx.First(&existing, cfg.ID).Error; err != nil {
				return notFound(err)
			}

			cfg.CreatedAt = existing.CreatedAt
			cfg.CreatedBy = existing.CreatedBy
			cfg.BindCredential = existing.BindCredential
		} else {
			cfg.CreatedBy = actorID
		}

		if password != "" {
			sealed, err := s.vault.Seal(password)
			if err != nil {
				return err
			}

			cfg.BindCredential = sealed
		}

		cfg.UpdatedBy = actorID

		if cfg.IsGlobal {
			if err := ensureSingleGlobal(tx, &models.TenantDirectoryConfig{}, cfg.ID); err != nil {
				return err
			}
		}

		if err := tx.Save(cfg).Error; err != nil {
			return fmt.Errorf("failed to save directory config: %w", err)
		}

		if cfg.Active {
			return deactivateOthers(tx, &models.TenantDirectoryConfig{}, cfg.ID, cfg.IsGlobal, cfg.TenantID)
		}

		return nil
	})
}

// DeactivateDirectoryConfig turns a directory configuration off. Rows are never deleted.
func (s *Store) DeactivateDirectoryConfig(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Model(&models.TenantDirectoryConfig{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConfigNotFound
	}

	return nil
}

// RecordDirectoryTest stores the outcome of a connection test on the row.
func (s *Store) RecordDirectoryTest(ctx context.Context, id uint64, testErr error) error {
	return recordTest(s.db.WithContext(ctx), &models.TenantDirectoryConfig{}, id, testErr)
}

func checkScope(global bool, tenantID string) error {
	if global && tenantID != "" {
		return fmt.Errorf("%w: a global configuration has no tenant", ErrInvalidConfig)
	}

	if !global && tenantID == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidConfig)
	}

	return nil
}

func ensureSingleGlobal(tx *gorm.DB, model any, id uint64) error {
	var count int64
	if err := tx.Model(model).Where("is_global = ? AND id <> ?", true, id).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrGlobalConfigExists
	}

	return nil
}

func deactivateOthers(tx *gorm.DB, model any, id uint64, global bool, tenantID string) error {
	q := tx.Model(model).Where("id <> ? AND active = ?", id, true)
	if global {
		q = q.Where("is_global = ?", true)
	} else {
		q = q.Where("tenant_id = ? AND is_global = ?", tenantID, false)
	}

	if err := q.Update("active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate previous configs: %w", err)
	}

	return nil
}

func recordTest(db *gorm.DB, model any, id uint64, testErr error) error {
	message := "ok"
	if testErr != nil {
		message = testErr.Error()
	}

	now := time.Now()

	result := db.Model(model).Where("id = ?", id).Updates(map[string]any{
		"last_test_at":      now,
		"last_test_ok":      testErr == nil,
		"last_test_message": message,
	})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		log.Debug().Uint64("id", id).Msg("connection test of an unsaved configuration not recorded")
	}

	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConfigNotFound
	}

	return err
}
