package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/db/controller/systemdefault"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// seed creates the system default row on an empty database. Every capability
// starts denied and the fallback directory and relay are disabled.
func seed(_ *config.Config, db *gorm.DB) error {
	_, err := systemdefault.Get(db)
	if errors.Is(err, systemdefault.ErrNotFound) {
		if err = systemdefault.Create(db, &models.SystemDefaultConfig{}); err != nil {
			return err
		}

		log.Info().Msg("system default configuration created")
	} else if err != nil {
		return err
	}

	var admins int64
	if err = db.Model(&models.AdministratorProfile{}).
		Where("tier = ? AND active = ?", models.TierGlobal, true).Count(&admins).Error; err != nil {
		return err
	}

	if admins == 0 {
		log.Warn().Msg("no global administrator exists, create one with: supplyconnect admin create-global")
	}

	return nil
}
