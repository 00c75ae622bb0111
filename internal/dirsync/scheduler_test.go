package dirsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/db/dbtest"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

type fakeTenants struct {
	ids []string
	err error
}

func (f fakeTenants) Tenants(context.Context) ([]string, error) {
	return f.ids, f.err
}

func TestNewScheduler(t *testing.T) {
	job := NewJob(dbtest.Open(t), testDirectory())

	testCases := []struct {
		name          string
		spec          string
		kinds         []models.SyncKind
		expectedError error
		expectError   bool
	}{
		{name: "defaults", spec: "@every 1h"},
		{name: "cron expression", spec: "30 2 * * *", kinds: []models.SyncKind{models.SyncKindUsers}},
		{name: "bad spec", spec: "every now and then", expectError: true},
		{name: "bad kind", spec: "@hourly", kinds: []models.SyncKind{"printers"}, expectedError: ErrUnknownKind},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewScheduler(job, fakeTenants{}, tc.spec, tc.kinds)

			switch {
			case tc.expectedError != nil:
				require.ErrorIs(t, err, tc.expectedError)
			case tc.expectError:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, s.kinds)
			}
		})
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	db := dbtest.Open(t)
	dir := testDirectory()
	dir.notConfigured = map[string]bool{"AR": true}

	s, err := NewScheduler(NewJob(db, dir), fakeTenants{ids: []string{"AR", "BR"}}, "@hourly", nil)
	require.NoError(t, err)

	reports := s.RunOnce(context.Background())
	require.Len(t, reports, 3)

	for i, kind := range DefaultKinds {
		assert.Equal(t, "BR", reports[i].TenantID)
		assert.Equal(t, kind, reports[i].Kind)
	}

	var runs []models.SyncRun
	require.NoError(t, db.Find(&runs).Error)
	require.Len(t, runs, 3)

	for _, r := range runs {
		assert.Equal(t, models.SyncTriggerScheduled, r.Trigger)
	}

	var links int64
	require.NoError(t, db.Model(&models.DirectoryMembership{}).Count(&links).Error)
	assert.Equal(t, int64(2), links)
}

func TestScheduler_RunOnceStopsTenantOnFailure(t *testing.T) {
	dir := testDirectory()
	dir.fetchErr = errors.New("boom")

	s, err := NewScheduler(NewJob(dbtest.Open(t), dir), fakeTenants{ids: []string{"BR"}}, "@hourly", nil)
	require.NoError(t, err)

	assert.Empty(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, dir.fetches)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(NewJob(dbtest.Open(t), testDirectory()), fakeTenants{}, "@every 1h", nil)
	require.NoError(t, err)

	s.Start()
	s.Stop(context.Background())
}
