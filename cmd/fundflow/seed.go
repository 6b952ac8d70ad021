package main

import (
	"context"
	"fmt"

	"github.com/fundflow-dev/fundflow/internal/seed"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [fixture.yaml]",
		Short: "Load demo users and campaigns from a YAML fixture",
		Long: `Load demo users and campaigns from a YAML fixture.

Users whose email already exists are reused. Campaigns are always added.

Example:
  fundflow seed fixtures/demo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.Load(args[0])

			if err != nil {
				return err
			}

			cfg, err := loadConfig()

			if err != nil {
				return err
			}

			ctx := context.Background()

			a, err := newApp(ctx, cfg)

			if err != nil {
				return err
			}
			defer a.Close()

			result, err := seed.NewSeeder(a.store, a.identity, a.campaigns).Apply(ctx, fixture)

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Users created: %d, existing: %d, campaigns created: %d\n",
				result.UsersCreated, result.UsersExisting, result.CampaignsCreated)
			return nil
		},
	}
}
