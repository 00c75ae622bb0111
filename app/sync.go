package app

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/supplyconnect/supplyconnect/internal/daemon"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/dirsync"
)

func init() { //nolint: gochecknoinits
	syncCmd.Flags().StringVar(&syncTenant, "tenant", "", "Tenant to sync, all tenants when empty")

	rootCmd.AddCommand(syncCmd)
}

var errSyncFailed = errors.New("directory sync failed")

var (
	syncTenant string

	syncCmd = &cobra.Command{
		Use:       "sync [groups|users|memberships|all]",
		Short:     "Mirror directory groups, users or memberships now",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"groups", "users", "memberships", "all"},
		PreRunE:   loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			services, err := daemon.NewServices(&cfg, db)
			if err != nil {
				return err
			}

			kinds := dirsync.DefaultKinds
			if args[0] != "all" {
				kinds = []models.SyncKind{models.SyncKind(args[0])}
			}

			tenants, err := syncTenants(ctx, services)
			if err != nil {
				return err
			}

			var failed bool

			for _, tenantID := range tenants {
				for _, kind := range kinds {
					report, errRun := services.Sync.Run(ctx, tenantID, kind, models.SyncTriggerCLI)
					if errRun != nil {
						cmd.PrintErrf("%s: %s sync failed: %v\n", tenantID, kind, errRun)
						failed = true

						break
					}

					cmd.Printf("%s: %s\n", tenantID, report)
				}
			}

			if failed {
				return errSyncFailed
			}

			return nil
		},
	}
)

func syncTenants(ctx context.Context, services *daemon.Services) ([]string, error) {
	if syncTenant != "" {
		return []string{strings.ToUpper(syncTenant)}, nil
	}

	return services.Tenants.Tenants(ctx)
}
