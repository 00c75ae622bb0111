package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/dbtest"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	"github.com/supplyconnect/supplyconnect/internal/permission"
)

type fakeDirectory struct {
	identities map[string]*directory.Identity
	errs       map[string]error
	calls      int
}

func (f *fakeDirectory) Authenticate(_ context.Context, tenantID, username, _ string) (*directory.Identity, error) {
	f.calls++

	if err, ok := f.errs[tenantID]; ok {
		return nil, err
	}

	if id, ok := f.identities[username]; ok {
		return id, nil
	}

	return nil, directory.ErrUserRecordNotFound
}

func createAdmin(t *testing.T, db *gorm.DB, username, password string, tier models.Tier, tenantID string) *models.User {
	t.Helper()

	hash, err := models.HashPassword(password)
	require.NoError(t, err)

	user := models.User{Username: username, Password: hash, Active: true, IsStaff: true, AuthSource: models.AuthSourceLocal}
	require.NoError(t, db.Create(&user).Error)

	profile := models.AdministratorProfile{UserID: user.ID, Tier: tier, TenantID: tenantID, Active: true}
	require.NoError(t, db.Create(&profile).Error)

	return &user
}

func TestLogin_AdministratorsUseLocalPassword(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	createAdmin(t, db, "root", "root-pass", models.TierGlobal, "")
	createAdmin(t, db, "admin-br", "br-pass", models.TierCountry, "BR")

	dir := &fakeDirectory{}
	svc := NewLoginService(db, dir)

	testCases := []struct {
		name          string
		tenant        string
		username      string
		password      string
		expectedError error
	}{
		{name: "global admin on any tenant", tenant: "AR", username: "root", password: "root-pass"},
		{name: "global admin wrong password", tenant: "BR", username: "root", password: "nope", expectedError: ErrInvalidPassword},
		{name: "country admin own tenant", tenant: "BR", username: "admin-br", password: "br-pass"},
		{name: "country admin wrong password", tenant: "BR", username: "admin-br", password: "nope", expectedError: ErrInvalidPassword},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.Login(ctx, tc.tenant, tc.username, tc.password)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.AuthSourceLocal, result.Source)
				assert.Equal(t, tc.tenant, result.TenantID)
				assert.NotNil(t, result.User.LastLoginAt)
			}
		})
	}

	assert.Zero(t, dir.calls, "administrators never reach the directory")
}

func TestLogin_CountryAdminOnOtherTenantUsesDirectory(t *testing.T) {
	db := dbtest.Open(t)

	createAdmin(t, db, "admin-br", "br-pass", models.TierCountry, "BR")

	dir := &fakeDirectory{errs: map[string]error{"AR": directory.ErrInvalidCredentials}}

	_, err := NewLoginService(db, dir).Login(context.Background(), "AR", "admin-br", "br-pass")
	require.ErrorIs(t, err, directory.ErrInvalidCredentials)
	assert.Equal(t, 1, dir.calls)
}

func TestLogin_DisabledAdministrator(t *testing.T) {
	db := dbtest.Open(t)

	user := createAdmin(t, db, "admin-br", "br-pass", models.TierCountry, "BR")
	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, err := NewLoginService(db, &fakeDirectory{}).Login(context.Background(), "BR", "admin-br", "br-pass")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestLogin_Directory(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	dir := &fakeDirectory{
		identities: map[string]*directory.Identity{
			"maria": {Username: "maria", FirstName: "Maria", LastName: "Souza", Email: "maria@ar.example.com", DN: "CN=Maria,DC=ar"},
		},
		errs: map[string]error{"BR": directory.ErrTenantNotConfigured},
	}
	svc := NewLoginService(db, dir)

	t.Run("tenant without directory", func(t *testing.T) {
		_, err := svc.Login(ctx, "BR", "maria", "pw")
		require.ErrorIs(t, err, directory.ErrTenantNotConfigured)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "AR", "ghost", "pw")
		require.ErrorIs(t, err, directory.ErrUserRecordNotFound)

		var count int64
		require.NoError(t, db.Model(&models.User{}).Where("username = ?", "ghost").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("reconciled user", func(t *testing.T) {
		result, err := svc.Login(ctx, "AR", "maria", "pw")
		require.NoError(t, err)
		assert.Equal(t, models.AuthSourceDirectory, result.Source)
		assert.Equal(t, "AR", result.User.TenantID)
		assert.Equal(t, "maria@ar.example.com", result.User.Email)
	})

	t.Run("disabled local account", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("username = ?", "maria").Update("active", false).Error)

		_, err := svc.Login(ctx, "AR", "maria", "pw")
		require.ErrorIs(t, err, ErrUserAccountDisabled)
	})

	t.Run("empty credentials", func(t *testing.T) {
		calls := dir.calls

		_, err := svc.Login(ctx, "AR", " ", "pw")
		require.ErrorIs(t, err, ErrInvalidPassword)
		assert.Equal(t, calls, dir.calls)
	})
}

func TestLogin_LoginCapability(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	dir := &fakeDirectory{identities: map[string]*directory.Identity{
		"joao": {Username: "joao", FirstName: "Joao", LastName: "Silva", Email: "joao@br.example.com", DN: "CN=Joao,DC=br"},
	}}
	svc := NewLoginService(db, dir, WithLoginCapability(permission.NewResolver(db)))

	_, err := svc.Login(ctx, "BR", "joao", "pw")
	require.ErrorIs(t, err, ErrLoginNotPermitted)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "joao").Count(&count).Error)
	assert.Zero(t, count, "a denied login writes no local user")

	defaults := models.SystemDefaultConfig{DefaultCapabilities: models.CapabilityFlags{CanLogin: true}}
	require.NoError(t, db.Create(&defaults).Error)

	result, err := svc.Login(ctx, "BR", "joao", "pw")
	require.NoError(t, err)
	assert.Equal(t, "joao", result.User.Username)
}
