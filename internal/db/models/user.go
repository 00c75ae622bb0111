package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a user account.
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceDirectory indicates the user authenticates against the tenant's directory server.
	AuthSourceDirectory AuthSource = "directory"
)

// UnusablePassword marks an account that has no local credential.
// argon2id never produces this value, so VerifyPassword always fails for it.
const UnusablePassword = "!"

// User represents a local user account.
// Directory users get a row here after their first successful login,
// administrators are provisioned with a local password.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:150;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255"`
	// Password is the Argon2id hashed password, or UnusablePassword for directory users.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:150"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:150"`
	// TenantID is the country code the user was last authenticated for.
	TenantID string `gorm:"size:8;index"`
	// IsStaff marks accounts allowed into the back office.
	IsStaff bool
	// AuthSource indicates how this user authenticates.
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the directory DN for directory users.
	ExternalID string `gorm:"size:512"`
	// LastLoginAt is the time of the last successful login.
	LastLoginAt *time.Time
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams) //nolint:wrapcheck
}

// HasUsablePassword reports whether a local password has been set.
func (u *User) HasUsablePassword() bool {
	return u.Password != "" && u.Password != UnusablePassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// Accounts without a usable password never match.
func (u *User) VerifyPassword(password string) bool {
	if !u.HasUsablePassword() {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("failed to verify password")
		return false
	}

	return match
}
