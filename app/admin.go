package app

import (
	"github.com/spf13/cobra"

	"github.com/supplyconnect/supplyconnect/internal/daemon"
	"github.com/supplyconnect/supplyconnect/internal/db/models"
	"github.com/supplyconnect/supplyconnect/internal/provision"
)

func init() { //nolint: gochecknoinits
	for _, c := range []*cobra.Command{createGlobalCmd, createCountryCmd} {
		c.Flags().StringVar(&adminInput.Username, "username", "", "Login name")
		c.Flags().StringVar(&adminInput.Email, "email", "", "E-mail address")
		c.Flags().StringVar(&adminInput.Password, "password", "", "Password, generated when empty")
		c.Flags().StringVar(&adminInput.FirstName, "first-name", "", "First name")
		c.Flags().StringVar(&adminInput.LastName, "last-name", "", "Last name")
		_ = c.MarkFlagRequired("username")
	}

	grant := models.DefaultGrant()
	f := createCountryCmd.Flags()
	f.StringVar(&adminInput.TenantID, "tenant", "", "Tenant (country code) the administrator manages")
	f.BoolVar(&adminGrant.CanConfigureDirectory, "can-configure-directory", grant.CanConfigureDirectory,
		"Allow maintaining the tenant's own directory")
	f.StringVar(&adminDirectorySource, "directory-source", string(grant.DirectorySource),
		"Directory fallback: own, inherit_manual or inherit_system_default")
	f.BoolVar(&adminGrant.CanConfigureMailRelay, "can-configure-mail-relay", grant.CanConfigureMailRelay,
		"Allow maintaining the tenant's own mail relay")
	f.StringVar(&adminMailRelaySource, "mail-relay-source", string(grant.MailRelaySource),
		"Mail relay fallback: own, inherit_manual or inherit_system_default")
	f.BoolVar(&adminGrant.CanSyncDirectory, "can-sync-directory", grant.CanSyncDirectory, "Allow triggering directory syncs")
	f.BoolVar(&adminGrant.CanAssignPermissions, "can-assign-permissions", grant.CanAssignPermissions,
		"Allow toggling capabilities of mirrored groups and users")
	f.BoolVar(&adminGrant.CanManageLocalUsers, "can-manage-local-users", grant.CanManageLocalUsers,
		"Allow managing local accounts")
	f.BoolVar(&adminGrant.CanManageSuppliers, "can-manage-suppliers", grant.CanManageSuppliers,
		"Allow governing the supplier capabilities")
	f.BoolVar(&adminGrant.CanManageContracts, "can-manage-contracts", grant.CanManageContracts,
		"Allow governing the contracts capability")
	f.BoolVar(&adminGrant.CanManageQuality, "can-manage-quality", grant.CanManageQuality,
		"Allow governing the quality capability")
	f.StringVar(&adminCapabilitySource, "capability-source", string(grant.CapabilitySource),
		"Fallback for capabilities the tenant does not govern")
	_ = createCountryCmd.MarkFlagRequired("tenant")

	adminCmd.AddCommand(createGlobalCmd, createCountryCmd)
	rootCmd.AddCommand(adminCmd)
}

var (
	adminInput            provision.Input
	adminGrant            models.TenantCapabilityGrant
	adminDirectorySource  string
	adminMailRelaySource  string
	adminCapabilitySource string

	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Provision administrator accounts",
	}

	createGlobalCmd = &cobra.Command{
		Use:     "create-global",
		Short:   "Create a global administrator",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			result, err := provision.New(db).CreateGlobalAdmin(cmd.Context(), adminInput, nil)
			if err != nil {
				return err
			}

			printAdmin(cmd, result)

			return nil
		},
	}

	createCountryCmd = &cobra.Command{
		Use:     "create-country",
		Short:   "Create a country administrator together with its capability grant",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			grant := adminGrant
			grant.DirectorySource = models.ConfigSource(adminDirectorySource)
			grant.MailRelaySource = models.ConfigSource(adminMailRelaySource)
			grant.CapabilitySource = models.ConfigSource(adminCapabilitySource)

			result, err := provision.New(db).CreateCountryAdmin(cmd.Context(), adminInput, &grant, nil)
			if err != nil {
				return err
			}

			printAdmin(cmd, result)

			return nil
		},
	}
)

func printAdmin(cmd *cobra.Command, result *provision.Result) {
	p := result.Profile

	if p.TenantID != "" {
		cmd.Printf("%s administrator %q created for tenant %s\n", p.Tier, p.User.Username, p.TenantID)
	} else {
		cmd.Printf("%s administrator %q created\n", p.Tier, p.User.Username)
	}

	if result.GeneratedPassword != "" {
		cmd.Printf("generated password: %s\n", result.GeneratedPassword)
	}
}
