package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate checks password against the stored argon2id hash of user.
func (p *LocalProvider) Authenticate(user *models.User, password string) error {
	if !user.Active {
		return ErrUserAccountDisabled
	}

	if password == "" || !user.VerifyPassword(password) {
		return ErrInvalidPassword
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (p *LocalProvider) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username. It returns ErrUserNotFound when none exists.
func (p *LocalProvider) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Profile returns the active administrator profile of userID, or nil when there is none.
func (p *LocalProvider) Profile(ctx context.Context, userID uint64) (*models.AdministratorProfile, error) {
	var profile models.AdministratorProfile

	err := p.db.WithContext(ctx).Preload("Grant").
		Where("user_id = ? AND active = ?", userID, true).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query administrator profile: %w", err)
	}

	return &profile, nil
}

// TouchLogin records the time of a successful login.
func (p *LocalProvider) TouchLogin(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.LastLoginAt = &now

	return p.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error
}
