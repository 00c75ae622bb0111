package dirsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	"github.com/supplyconnect/supplyconnect/internal/metrics"
)

// Directory is the part of directory.Connector the sync job needs.
type Directory interface {
	Config(ctx context.Context, tenantID string) (*models.TenantDirectoryConfig, error)
	FetchGroups(ctx context.Context, cfg *models.TenantDirectoryConfig) ([]directory.GroupEntry, error)
	FetchUsers(ctx context.Context, cfg *models.TenantDirectoryConfig) ([]directory.UserEntry, error)
}

// Job runs directory syncs against one database.
type Job struct {
	db   *gorm.DB
	dir  Directory
	lock *locker
}

// Option configures a Job.
type Option func(*Job)

// WithLockTTL changes the expiry of the tenant lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(j *Job) {
		if ttl > 0 {
			j.lock.ttl = ttl
		}
	}
}

// NewJob returns a Job reading from dir and writing to db.
func NewJob(db *gorm.DB, dir Directory, opts ...Option) *Job {
	j := &Job{
		db:   db,
		dir:  dir,
		lock: &locker{db: db, ttl: DefaultLockTTL},
	}

	for _, opt := range opts {
		opt(j)
	}

	return j
}

// Run dispatches to the sync of kind.
func (j *Job) Run(ctx context.Context, tenantID string, kind models.SyncKind, trigger models.SyncTrigger) (Report, error) {
	switch kind {
	case models.SyncKindGroups:
		return j.SyncGroups(ctx, tenantID, trigger)
	case models.SyncKindUsers:
		return j.SyncUsers(ctx, tenantID, trigger)
	case models.SyncKindMemberships:
		return j.SyncMemberships(ctx, tenantID, trigger)
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// SyncGroups mirrors the tenant's directory groups, keyed by DN.
// Groups no longer returned by the directory are deactivated.
func (j *Job) SyncGroups(ctx context.Context, tenantID string, trigger models.SyncTrigger) (Report, error) {
	return j.run(ctx, tenantID, models.SyncKindGroups, trigger,
		func(ctx context.Context, cfg *models.TenantDirectoryConfig, report *Report) error {
			groups, err := j.dir.FetchGroups(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%w: fetch groups: %w", ErrSyncAborted, err)
			}

			if err = ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSyncAborted, err)
			}

			return j.write(ctx, func(tx *gorm.DB) error {
				return upsertGroups(tx, tenantID, groups, report)
			})
		})
}

// SyncUsers mirrors the tenant's directory persons. Only identity attributes
// are written; memberships and capability flags stay as they are.
func (j *Job) SyncUsers(ctx context.Context, tenantID string, trigger models.SyncTrigger) (Report, error) {
	return j.run(ctx, tenantID, models.SyncKindUsers, trigger,
		func(ctx context.Context, cfg *models.TenantDirectoryConfig, report *Report) error {
			users, err := j.dir.FetchUsers(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%w: fetch users: %w", ErrSyncAborted, err)
			}

			if err = ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSyncAborted, err)
			}

			return j.write(ctx, func(tx *gorm.DB) error {
				return upsertUsers(tx, tenantID, users, report)
			})
		})
}

// SyncMemberships links user mirrors to the group mirrors whose member
// attribute lists them. Groups and users must have been synced before.
func (j *Job) SyncMemberships(ctx context.Context, tenantID string, trigger models.SyncTrigger) (Report, error) {
	return j.run(ctx, tenantID, models.SyncKindMemberships, trigger,
		func(ctx context.Context, cfg *models.TenantDirectoryConfig, report *Report) error {
			groups, err := j.dir.FetchGroups(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%w: fetch groups: %w", ErrSyncAborted, err)
			}

			if err = ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSyncAborted, err)
			}

			return j.write(ctx, func(tx *gorm.DB) error {
				return replaceMemberships(tx, tenantID, groups, report)
			})
		})
}

type syncFunc func(ctx context.Context, cfg *models.TenantDirectoryConfig, report *Report) error

func (j *Job) run(
	ctx context.Context,
	tenantID string,
	kind models.SyncKind,
	trigger models.SyncTrigger,
	fn syncFunc,
) (Report, error) {
	report := Report{TenantID: tenantID, Kind: kind}

	cfg, err := j.dir.Config(ctx, tenantID)
	if err != nil {
		return report, err
	}

	release, err := j.lock.acquire(ctx, tenantID)
	if err != nil {
		return report, err
	}
	defer release()

	started := time.Now()
	report.RunID = uuid.NewString()

	run := models.SyncRun{
		RunID:     report.RunID,
		TenantID:  tenantID,
		Kind:      kind,
		Trigger:   trigger,
		Status:    models.SyncStatusRunning,
		StartedAt: started,
	}
	if err = j.db.WithContext(ctx).Create(&run).Error; err != nil {
		return report, fmt.Errorf("failed to record sync run: %w", err)
	}

	logger := log.With().Str("tenant", tenantID).Str("kind", string(kind)).Str("run_id", report.RunID).Logger()
	logger.Info().Str("trigger", string(trigger)).Msg("directory sync started")

	err = fn(ctx, cfg, &report)

	j.finish(&run, report, err)
	metrics.SyncDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.SyncRuns.WithLabelValues(string(kind), string(models.SyncStatusFailed)).Inc()
		logger.Error().Err(err).Msg("directory sync failed")

		return Report{RunID: report.RunID, TenantID: tenantID, Kind: kind}, err
	}

	metrics.SyncRuns.WithLabelValues(string(kind), string(models.SyncStatusSuccess)).Inc()
	metrics.SyncObjects.WithLabelValues(string(kind), "created").Add(float64(report.Created))
	metrics.SyncObjects.WithLabelValues(string(kind), "updated").Add(float64(report.Updated))
	logger.Info().Int("created", report.Created).Int("updated", report.Updated).
		Int("deactivated", report.Deactivated).Msg("directory sync finished")

	return report, nil
}

// write runs fn in one transaction. Write errors abort the run as a whole.
func (j *Job) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := j.db.WithContext(ctx).Transaction(fn); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncAborted, err)
	}

	return nil
}

// finish stores the outcome on the run row. It uses a fresh context so a
// cancelled run is still recorded.
func (j *Job) finish(run *models.SyncRun, report Report, runErr error) {
	now := time.Now()

	updates := map[string]any{
		"status":      models.SyncStatusSuccess,
		"created":     report.Created,
		"updated":     report.Updated,
		"finished_at": now,
	}

	if runErr != nil {
		updates["status"] = models.SyncStatusFailed
		updates["created"] = 0
		updates["updated"] = 0
		updates["error"] = runErr.Error()
	}

	if err := j.db.Model(run).Updates(updates).Error; err != nil {
		log.Error().Err(err).Str("run_id", run.RunID).Msg("failed to record sync result")
	}
}

// dnKey normalises a DN for map lookups. Directory servers compare DNs case-insensitively.
func dnKey(dn string) string {
	return strings.ToLower(strings.TrimSpace(dn))
}
