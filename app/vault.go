package app

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supplyconnect/supplyconnect/internal/daemon"
	"github.com/supplyconnect/supplyconnect/internal/tenant"
	"github.com/supplyconnect/supplyconnect/internal/vault"
)

func init() { //nolint: gochecknoinits
	vaultCmd.AddCommand(vaultSealCmd, vaultMigrateCmd)
	rootCmd.AddCommand(vaultCmd)
}

var (
	vaultCmd = &cobra.Command{
		Use:   "vault",
		Short: "Seal credentials with the master key",
	}

	vaultSealCmd = &cobra.Command{
		Use:     "seal",
		Short:   "Seal the secret read from stdin and print the token",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := vault.New(cfg.Vault.MasterKey)
			if err != nil {
				return err
			}

			secret, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && secret == "" {
				return fmt.Errorf("failed to read secret: %w", err)
			}

			token, err := v.Seal(strings.TrimRight(secret, "\r\n"))
			if err != nil {
				return err
			}

			cmd.Println(token)

			return nil
		},
	}

	vaultMigrateCmd = &cobra.Command{
		Use:     "migrate",
		Short:   "Seal directory and mail relay credentials still stored in clear text",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			v, err := vault.New(cfg.Vault.MasterKey)
			if err != nil {
				return err
			}

			sealed, err := tenant.SealCredentials(cmd.Context(), db, v)
			if err != nil {
				return err
			}

			cmd.Printf("%d credential(s) sealed\n", sealed)

			return nil
		},
	}
)
