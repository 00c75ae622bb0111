package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
)

// Reconciler maps directory identities onto local users.
type Reconciler struct {
	db *gorm.DB
}

// NewReconciler returns a Reconciler writing to db.
func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile creates or updates the local user of identity and assigns it to tenantID.
// Reconciling the same identity twice leaves one row holding the last values.
//
// New users get an unusable password. Existing users keep their password and
// active flag; accounts with a usable local password stay local accounts.
func (r *Reconciler) Reconcile(ctx context.Context, identity *directory.Identity, tenantID string) (*models.User, error) {
	if identity == nil || strings.TrimSpace(identity.Username) == "" {
		return nil, ErrEmptyIdentity
	}

	var user models.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ?", identity.Username).First(&user).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Username:   identity.Username,
				Password:   models.UnusablePassword,
				Active:     true,
				AuthSource: models.AuthSourceDirectory,
			}
			applyIdentity(&user, identity, tenantID)

			if err = tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			log.Info().Str("tenant", tenantID).Str("username", user.Username).Msg("created local user from directory")

			return nil
		case err != nil:
			return fmt.Errorf("failed to query user: %w", err)
		}

		applyIdentity(&user, identity, tenantID)

		if !user.HasUsablePassword() {
			user.AuthSource = models.AuthSourceDirectory
		}

		return tx.Model(&user).Select(
			"first_name", "last_name", "email", "tenant_id", "is_staff", "auth_source", "external_id",
		).Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func applyIdentity(user *models.User, identity *directory.Identity, tenantID string) {
	user.FirstName = identity.FirstName
	user.LastName = identity.LastName
	user.Email = identity.Email
	user.TenantID = tenantID
	user.ExternalID = identity.DN
	user.IsStaff = true
}
