package tenant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// CredentialSealer seals values that are still stored in clear text.
type CredentialSealer interface {
	EnsureSealed(s string) (string, bool, error)
}

type credentialColumn struct {
	model  any
	table  string
	column string
}

var credentialColumns = []credentialColumn{ //nolint:gochecknoglobals
	{model: &models.TenantDirectoryConfig{}, table: "tenant_directory_configs", column: "bind_credential"},
	{model: &models.MailRelayConfig{}, table: "mail_relay_configs", column: "credential"},
	{model: &models.SystemDefaultConfig{}, table: "system_default_configs", column: "directory_bind_credential"},
	{model: &models.SystemDefaultConfig{}, table: "system_default_configs", column: "mail_credential"},
}

// SealCredentials rewrites every clear text credential column in sealed form
// and returns the number of values it sealed. It runs in one transaction.
func SealCredentials(ctx context.Context, db *gorm.DB, sealer CredentialSealer) (int, error) {
	var sealed int

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, col := range credentialColumns {
			var rows []struct {
				ID    uint64
				Value string
			}

			err := tx.Model(col.model).
				Select(fmt.Sprintf("id, %s AS value", col.column)).
				Where(fmt.Sprintf("%s <> ''", col.column)).
				Scan(&rows).Error
			if err != nil {
				return fmt.Errorf("failed to read %s.%s: %w", col.table, col.column, err)
			}

			for _, row := range rows {
				value, changed, errSeal := sealer.EnsureSealed(row.Value)
				if errSeal != nil {
					return errSeal
				}

				if !changed {
					continue
				}

				if err = tx.Model(col.model).Where("id = ?", row.ID).Update(col.column, value).Error; err != nil {
					return fmt.Errorf("failed to update %s.%s: %w", col.table, col.column, err)
				}

				log.Info().Str("table", col.table).Uint64("id", row.ID).Msg("credential sealed")

				sealed++
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return sealed, nil
}
