// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/supplyconnect/supplyconnect/internal/config"
	"github.com/supplyconnect/supplyconnect/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Directory holding main.toml")
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "supplyconnect",
		Short: "SupplyConnect is the back-office of the supply chain portal",
		Long: `SupplyConnect is the multi-tenant back-office of the supply chain portal.
It authenticates users against their country's directory, mirrors directory
groups and users and resolves the capabilities of every account.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and sets up logging. Commands that need
// either call it from PreRunE.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}
