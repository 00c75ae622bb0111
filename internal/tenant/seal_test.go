package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

func TestSealCredentials(t *testing.T) {
	_, db, v := newTestStore(t)
	ctx := context.Background()

	legacy := directoryRow("BR", "dc01", false, true)
	legacy.BindCredential = "clear-text"
	require.NoError(t, db.Create(legacy).Error)

	alreadySealed, err := v.Seal("relay-pass")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.MailRelayConfig{
		TenantID: "BR", Host: "smtp.example.com", Port: 25, FromEmail: "noreply@example.com", Credential: alreadySealed, Active: true,
	}).Error)

	sealed, err := SealCredentials(ctx, db, v)
	require.NoError(t, err)
	assert.Equal(t, 1, sealed)

	var stored models.TenantDirectoryConfig
	require.NoError(t, db.First(&stored, legacy.ID).Error)
	assert.True(t, v.LooksSealed(stored.BindCredential))

	plain, err := v.OpenStrict(stored.BindCredential)
	require.NoError(t, err)
	assert.Equal(t, "clear-text", plain)

	sealed, err = SealCredentials(ctx, db, v)
	require.NoError(t, err)
	assert.Zero(t, sealed, "second run finds nothing to seal")
}
