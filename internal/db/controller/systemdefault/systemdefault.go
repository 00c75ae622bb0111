// Package systemdefault provides access to the singleton system default configuration.
package systemdefault

import (
	"errors"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

var (
	// ErrNotFound is returned when the system default row has not been created yet.
	ErrNotFound = errors.New("system default configuration not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves the system default row.
func Get(db *gorm.DB) (*models.SystemDefaultConfig, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cfg models.SystemDefaultConfig
	result := db.Order("id").First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	return &cfg, nil
}

// Create inserts the system default row. A second row is rejected with
// models.ErrSystemDefaultExists.
func Create(db *gorm.DB, cfg *models.SystemDefaultConfig) error {
	if db == nil {
		return ErrDBNil
	}

	cfg.ID = 0

	return db.Create(cfg).Error
}

// Set creates the system default row or replaces the values of the existing one.
func Set(db *gorm.DB, cfg *models.SystemDefaultConfig) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		existing, err := Get(tx)
		if errors.Is(err, ErrNotFound) {
			return Create(tx, cfg)
		}
		if err != nil {
			return err
		}

		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt

		return tx.Save(cfg).Error
	})
}

// Capabilities returns the system wide capability defaults.
// A missing row yields all capabilities denied.
func Capabilities(db *gorm.DB) (models.CapabilityFlags, bool, error) {
	cfg, err := Get(db)
	if errors.Is(err, ErrNotFound) {
		return models.CapabilityFlags{}, false, nil
	}
	if err != nil {
		return models.CapabilityFlags{}, false, err
	}

	return cfg.DefaultCapabilities, true, nil
}
