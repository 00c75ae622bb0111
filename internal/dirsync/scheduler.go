package dirsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/directory"
	cronlog "github.com/supplyconnect/supplyconnect/internal/logger/adapter/cron"
)

// DefaultKinds is the order the scheduler syncs in. Memberships need both
// groups and users mirrored first.
var DefaultKinds = []models.SyncKind{ //nolint:gochecknoglobals
	models.SyncKindGroups,
	models.SyncKindUsers,
	models.SyncKindMemberships,
}

// TenantLister lists the tenants the scheduler visits.
type TenantLister interface {
	Tenants(ctx context.Context) ([]string, error)
}

// Scheduler runs the sync job on a cron schedule.
type Scheduler struct {
	job     *Job
	tenants TenantLister
	kinds   []models.SyncKind
	cron    *cron.Cron
}

// NewScheduler validates spec and kinds and registers the sync run.
// An empty kinds list means DefaultKinds.
func NewScheduler(job *Job, tenants TenantLister, spec string, kinds []models.SyncKind) (*Scheduler, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}

	for _, k := range kinds {
		switch k {
		case models.SyncKindGroups, models.SyncKindUsers, models.SyncKindMemberships:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	}

	logger := cronlog.New()

	s := &Scheduler{
		job:     job,
		tenants: tenants,
		kinds:   kinds,
		cron:    cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
	}

	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("directory sync scheduler started")
}

// Stop stops the cron loop and waits for a running sync or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("directory sync still running on shutdown")
	}
}

// RunOnce syncs every kind for every listed tenant and returns the successful reports.
// A failing kind skips the remaining kinds of that tenant.
func (s *Scheduler) RunOnce(ctx context.Context) []Report {
	tenants, err := s.tenants.Tenants(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list tenants for directory sync")
		return nil
	}

	var reports []Report

	for _, tenantID := range tenants {
		for _, kind := range s.kinds {
			report, errRun := s.job.Run(ctx, tenantID, kind, models.SyncTriggerScheduled)
			if errRun == nil {
				reports = append(reports, report)
				continue
			}

			switch {
			case errors.Is(errRun, directory.ErrTenantNotConfigured):
				log.Debug().Str("tenant", tenantID).Msg("tenant has no directory, skipping scheduled sync")
			case errors.Is(errRun, ErrSyncInProgress):
				log.Info().Str("tenant", tenantID).Str("kind", string(kind)).Msg("sync already running, skipping")
			default:
				log.Error().Err(errRun).Str("tenant", tenantID).Str("kind", string(kind)).Msg("scheduled directory sync failed")
			}

			break
		}

		if ctx.Err() != nil {
			break
		}
	}

	return reports
}
