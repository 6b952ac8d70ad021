package main

import (
	"fmt"
	"os"

	"github.com/fundflow-dev/fundflow/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version    = "dev"
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fundflow",
		Short:         "FundFlow crowdfunding API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file (environment variables win)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)

	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
