package dirsync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

const (
	lockName = "directory_sync"

	// DefaultLockTTL is how long a lock stays valid before another holder may take it over.
	DefaultLockTTL = 30 * time.Minute
)

// locker hands out the per-tenant advisory lock rows.
type locker struct {
	db  *gorm.DB
	ttl time.Duration
}

// acquire inserts the lock row of tenantID, or takes over an expired one.
// Every call uses a new holder id, so two runs of the same process exclude each other too.
func (l *locker) acquire(ctx context.Context, tenantID string) (func(), error) {
	db := l.db.WithContext(ctx)
	now := time.Now()
	holder := uuid.NewString()

	row := models.SyncLock{
		LockName:  lockName,
		LockKey:   tenantID,
		LockedBy:  holder,
		LockedAt:  now,
		ExpiresAt: now.Add(l.ttl),
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to insert sync lock: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		res = db.Model(&models.SyncLock{}).
			Where("lock_name = ? AND lock_key = ? AND expires_at < ?", lockName, tenantID, now).
			Updates(map[string]any{
				"locked_by":  holder,
				"locked_at":  now,
				"expires_at": now.Add(l.ttl),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("failed to take over sync lock: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return nil, ErrSyncInProgress
		}

		log.Warn().Str("tenant", tenantID).Msg("took over expired sync lock")
	}

	release := func() {
		err := l.db.Where("lock_name = ? AND lock_key = ? AND locked_by = ?", lockName, tenantID, holder).
			Delete(&models.SyncLock{}).Error
		if err != nil {
			log.Error().Err(err).Str("tenant", tenantID).Msg("failed to release sync lock")
		}
	}

	return release, nil
}
