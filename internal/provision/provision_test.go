package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/db/dbtest"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

func TestCreateGlobalAdmin(t *testing.T) {
	db := dbtest.Open(t)
	s := New(db)
	ctx := context.Background()

	result, err := s.CreateGlobalAdmin(ctx, Input{Username: "root", Email: "root@example.com", TenantID: "BR"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.GeneratedPassword)

	profile := result.Profile
	assert.Equal(t, models.TierGlobal, profile.Tier)
	assert.Empty(t, profile.TenantID, "global administrators are never bound to a tenant")
	assert.True(t, profile.Active)
	assert.Nil(t, profile.Grant)

	var user models.User
	require.NoError(t, db.First(&user, profile.UserID).Error)
	assert.True(t, user.VerifyPassword(result.GeneratedPassword))
	assert.True(t, user.IsStaff)
	assert.Equal(t, models.AuthSourceLocal, user.AuthSource)
}

func TestCreateCountryAdmin(t *testing.T) {
	db := dbtest.Open(t)
	s := New(db)
	ctx := context.Background()

	result, err := s.CreateCountryAdmin(ctx, Input{Username: "admin-br", Password: "a-long-password", TenantID: "br"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.GeneratedPassword)

	var profile models.AdministratorProfile
	require.NoError(t, db.Preload("Grant").Preload("User").First(&profile, result.Profile.ID).Error)
	assert.Equal(t, models.TierCountry, profile.Tier)
	assert.Equal(t, "BR", profile.TenantID)
	require.NotNil(t, profile.Grant)
	assert.Equal(t, models.DefaultGrant().CanSyncDirectory, profile.Grant.CanSyncDirectory)
	assert.Equal(t, models.SourceInheritSystemDefault, profile.Grant.CapabilitySource)
	assert.True(t, profile.User.VerifyPassword("a-long-password"))
	assert.Equal(t, "BR", profile.User.TenantID)
}

func TestCreate_Invalid(t *testing.T) {
	db := dbtest.Open(t)
	s := New(db)
	ctx := context.Background()

	_, err := s.CreateCountryAdmin(ctx, Input{Username: "admin-br", Password: "a-long-password", TenantID: "BR"}, nil, nil)
	require.NoError(t, err)

	testCases := []struct {
		name          string
		in            Input
		country       bool
		expectedError error
	}{
		{name: "short username", in: Input{Username: "ab", TenantID: "BR"}, country: true, expectedError: ErrInvalidInput},
		{name: "bad email", in: Input{Username: "someone", Email: "nope", TenantID: "BR"}, country: true, expectedError: ErrInvalidInput},
		{name: "short password", in: Input{Username: "someone", Password: "short", TenantID: "BR"}, country: true, expectedError: ErrInvalidInput},
		{name: "country without tenant", in: Input{Username: "someone"}, country: true, expectedError: models.ErrCountryProfileNeedsTenant},
		{name: "bad tenant", in: Input{Username: "someone", TenantID: "B-R"}, country: true, expectedError: ErrInvalidInput},
		{name: "already administrator", in: Input{Username: "admin-br"}, expectedError: ErrAlreadyAdministrator},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.country {
				_, err = s.CreateCountryAdmin(ctx, tc.in, nil, nil)
			} else {
				_, err = s.CreateGlobalAdmin(ctx, tc.in, nil)
			}

			require.ErrorIs(t, err, tc.expectedError)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.AdministratorProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreate_PromotesExistingUser(t *testing.T) {
	db := dbtest.Open(t)

	existing := models.User{Username: "maria", Password: models.UnusablePassword, Active: true, AuthSource: models.AuthSourceDirectory}
	require.NoError(t, db.Create(&existing).Error)

	result, err := New(db).CreateCountryAdmin(context.Background(), Input{Username: "maria", TenantID: "AR"}, nil, &existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.Profile.UserID)
	assert.NotEmpty(t, result.GeneratedPassword)
	require.NotNil(t, result.Profile.CreatedByID)
	assert.Equal(t, models.AuthSourceLocal, result.Profile.User.AuthSource)
}

func TestReprovision(t *testing.T) {
	db := dbtest.Open(t)
	s := New(db)
	ctx := context.Background()

	result, err := s.CreateGlobalAdmin(ctx, Input{Username: "root"}, nil)
	require.NoError(t, err)

	profile := result.Profile

	err = db.Model(profile).Update("tenant_id", "BR").Error
	require.ErrorIs(t, err, models.ErrProfileImmutable)

	require.ErrorIs(t, s.Reprovision(ctx, profile.ID, models.TierCountry, ""), ErrInvalidInput)
	require.ErrorIs(t, s.Reprovision(ctx, 999, models.TierCountry, "BR"), ErrProfileNotFound)

	require.NoError(t, s.Reprovision(ctx, profile.ID, models.TierCountry, "br"))

	var stored models.AdministratorProfile
	require.NoError(t, db.Preload("Grant").First(&stored, profile.ID).Error)
	assert.Equal(t, models.TierCountry, stored.Tier)
	assert.Equal(t, "BR", stored.TenantID)
	assert.NotNil(t, stored.Grant)
}

func TestSetActive(t *testing.T) {
	db := dbtest.Open(t)
	s := New(db)
	ctx := context.Background()

	profile := dbtest.CountryAdmin(t, db, "BR", models.DefaultGrant())

	require.NoError(t, s.SetActive(ctx, profile.ID, false))

	var stored models.AdministratorProfile
	require.NoError(t, db.First(&stored, profile.ID).Error)
	assert.False(t, stored.Active)

	require.ErrorIs(t, s.SetActive(ctx, 999, true), ErrProfileNotFound)
}
