// Package provision creates administrator accounts together with their profile
// and capability grant.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/uniuri"
)

// Input describes the account of a new administrator.
type Input struct {
	Username  string `validate:"required,min=3,max=150"`
	Email     string `validate:"omitempty,email"`
	Password  string `validate:"omitempty,min=12,max=128"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	TenantID  string `validate:"omitempty,alpha,max=8"`
}

// Result is a provisioned administrator.
type Result struct {
	Profile *models.AdministratorProfile
	// GeneratedPassword is set when Input.Password was empty and a password was generated.
	GeneratedPassword string
}

// Service provisions administrators.
type Service struct {
	db        *gorm.DB
	validator *validator.Validate
}

// New returns a Service writing to db.
func New(db *gorm.DB) *Service {
	return &Service{db: db, validator: validator.New()}
}

// CreateGlobalAdmin creates a global administrator.
func (s *Service) CreateGlobalAdmin(ctx context.Context, in Input, actorID *uint64) (*Result, error) {
	in.TenantID = ""

	return s.create(ctx, in, models.TierGlobal, nil, actorID)
}

// CreateCountryAdmin creates a country administrator of in.TenantID holding grant.
// A nil grant means models.DefaultGrant.
func (s *Service) CreateCountryAdmin(
	ctx context.Context,
	in Input,
	grant *models.TenantCapabilityGrant,
	actorID *uint64,
) (*Result, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, models.ErrCountryProfileNeedsTenant)
	}

	if grant == nil {
		g := models.DefaultGrant()
		grant = &g
	}

	return s.create(ctx, in, models.TierCountry, grant, actorID)
}

// create stores user, profile and grant in one transaction. An existing user
// without a profile is promoted and keeps its password unless a new one is given.
func (s *Service) create(
	ctx context.Context,
	in Input,
	tier models.Tier,
	grant *models.TenantCapabilityGrant,
	actorID *uint64,
) (*Result, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.TenantID = strings.ToUpper(strings.TrimSpace(in.TenantID))

	if err := s.validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result := &Result{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		err := tx.Where("username = ?", in.Username).First(&user).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Username: in.Username, Active: true, AuthSource: models.AuthSourceLocal}
		case err != nil:
			return fmt.Errorf("failed to query user: %w", err)
		default:
			var count int64
			if err = tx.Model(&models.AdministratorProfile{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to query profile: %w", err)
			}

			if count > 0 {
				return ErrAlreadyAdministrator
			}
		}

		password := in.Password
		if password == "" && !user.HasUsablePassword() {
			if password, err = uniuri.Password(); err != nil {
				return err
			}

			result.GeneratedPassword = password
		}

		if password != "" {
			if user.Password, err = models.HashPassword(password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		if in.Email != "" {
			user.Email = in.Email
		}

		if in.FirstName != "" {
			user.FirstName = in.FirstName
		}

		if in.LastName != "" {
			user.LastName = in.LastName
		}

		user.IsStaff = true
		user.AuthSource = models.AuthSourceLocal

		if in.TenantID != "" {
			user.TenantID = in.TenantID
		}

		if err = tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		profile := &models.AdministratorProfile{
			UserID:      user.ID,
			Tier:        tier,
			TenantID:    in.TenantID,
			Active:      true,
			CreatedByID: actorID,
			Grant:       grant,
		}
		if err = tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		profile.User = user
		result.Profile = profile

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", in.Username).Str("tier", string(tier)).Str("tenant", in.TenantID).
		Msg("administrator provisioned")

	return result, nil
}

// Reprovision changes tier and tenant of a profile. Country profiles without a
// grant get models.DefaultGrant.
func (s *Service) Reprovision(ctx context.Context, profileID uint64, tier models.Tier, tenantID string) error {
	tenantID = strings.ToUpper(strings.TrimSpace(tenantID))

	check := models.AdministratorProfile{Tier: tier, TenantID: tenantID}
	if err := check.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return s.db.WithContext(models.WithReprovision(ctx)).Transaction(func(tx *gorm.DB) error {
		var profile models.AdministratorProfile

		err := tx.Preload("Grant").First(&profile, profileID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to query profile: %w", err)
		}

		if err = tx.Model(&profile).Updates(map[string]any{"tier": tier, "tenant_id": tenantID}).Error; err != nil {
			return fmt.Errorf("failed to reprovision profile: %w", err)
		}

		if tier == models.TierCountry && profile.Grant == nil {
			grant := models.DefaultGrant()
			grant.ProfileID = profile.ID

			if err = tx.Create(&grant).Error; err != nil {
				return fmt.Errorf("failed to create grant: %w", err)
			}
		}

		log.Info().Uint64("profile_id", profile.ID).Str("tier", string(tier)).Str("tenant", tenantID).
			Msg("administrator reprovisioned")

		return nil
	})
}

// SetActive enables or disables a profile.
func (s *Service) SetActive(ctx context.Context, profileID uint64, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.AdministratorProfile{}).Where("id = ?", profileID).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}
