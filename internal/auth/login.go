package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	"github.com/supplyconnect/supplyconnect/internal/metrics"
)

// Authenticator checks credentials against a tenant's directory.
type Authenticator interface {
	Authenticate(ctx context.Context, tenantID, username, password string) (*directory.Identity, error)
}

// CapabilityResolver resolves a single capability of a user.
type CapabilityResolver interface {
	Resolve(ctx context.Context, user *models.User, tenantID string, capability models.Capability) (bool, error)
}

// LoginResult is a successful login.
type LoginResult struct {
	User *models.User
	// TenantID is the tenant the user logged in for.
	TenantID string
	// Source is local for administrators and directory for everybody else.
	Source models.AuthSource
}

// LoginService authenticates login requests.
type LoginService struct {
	local      *LocalProvider
	directory  Authenticator
	reconciler *Reconciler
	resolver   CapabilityResolver
}

// LoginOption configures a LoginService.
type LoginOption func(*LoginService)

// WithLoginCapability makes directory logins require the can_login capability.
func WithLoginCapability(resolver CapabilityResolver) LoginOption {
	return func(s *LoginService) {
		s.resolver = resolver
	}
}

// NewLoginService returns a LoginService using dir for non-administrators.
func NewLoginService(db *gorm.DB, dir Authenticator, opts ...LoginOption) *LoginService {
	s := &LoginService{
		local:      NewLocalProvider(db),
		directory:  dir,
		reconciler: NewReconciler(db),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Login authenticates username for tenantID.
//
// Users holding an active administrator profile for tenantID, or a global one,
// are checked against their local password with no directory fallback.
// Everybody else authenticates against the tenant directory and is reconciled.
func (s *LoginService) Login(ctx context.Context, tenantID, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.LoginAttempts.WithLabelValues("none", metrics.ResultFailure).Inc()
		return nil, ErrInvalidPassword
	}

	result, err := s.login(ctx, tenantID, username, password)
	if err != nil {
		source := string(models.AuthSourceDirectory)
		if errors.Is(err, ErrInvalidPassword) || errors.Is(err, ErrUserAccountDisabled) {
			source = string(models.AuthSourceLocal)
		}

		metrics.LoginAttempts.WithLabelValues(source, metrics.ResultFailure).Inc()
		log.Info().Err(err).Str("tenant", tenantID).Str("username", username).Msg("login failed")

		return nil, err
	}

	if errTouch := s.local.TouchLogin(ctx, result.User); errTouch != nil {
		log.Warn().Err(errTouch).Uint64("user_id", result.User.ID).Msg("failed to record last login")
	}

	metrics.LoginAttempts.WithLabelValues(string(result.Source), metrics.ResultSuccess).Inc()
	log.Info().Str("tenant", tenantID).Str("username", result.User.Username).Str("source", string(result.Source)).
		Msg("login succeeded")

	return result, nil
}

func (s *LoginService) login(ctx context.Context, tenantID, username, password string) (*LoginResult, error) {
	user, err := s.local.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if user != nil {
		profile, errProfile := s.local.Profile(ctx, user.ID)
		if errProfile != nil {
			return nil, errProfile
		}

		if profile != nil && profile.AdministersTenant(tenantID) {
			if err = s.local.Authenticate(user, password); err != nil {
				return nil, err
			}

			return &LoginResult{User: user, TenantID: tenantID, Source: models.AuthSourceLocal}, nil
		}
	}

	identity, err := s.directory.Authenticate(ctx, tenantID, username, password)
	if err != nil {
		metrics.DirectoryErrors.WithLabelValues(errorClass(err)).Inc()
		return nil, err
	}

	// the capability is decided before the local user is written, so a denied
	// directory user leaves no local account behind
	if s.resolver != nil {
		candidate := &models.User{Username: identity.Username, TenantID: tenantID}

		allowed, errResolve := s.resolver.Resolve(ctx, candidate, tenantID, models.CapabilityLogin)
		if errResolve != nil {
			return nil, errResolve
		}

		if !allowed {
			return nil, ErrLoginNotPermitted
		}
	}

	user, err = s.reconciler.Reconcile(ctx, identity, tenantID)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return &LoginResult{User: user, TenantID: tenantID, Source: models.AuthSourceDirectory}, nil
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, directory.ErrTenantNotConfigured):
		return "tenant_not_configured"
	case errors.Is(err, directory.ErrConnectionFailed):
		return "connection_failed"
	case errors.Is(err, directory.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, directory.ErrUserRecordNotFound):
		return "user_not_found"
	default:
		return "protocol"
	}
}
