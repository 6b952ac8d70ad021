package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()

			if err != nil {
				return err
			}

			st, err := openStore(context.Background(), cfg)

			if err != nil {
				return err
			}
			defer st.Close()

			log.Println("Database migrated")
			return nil
		},
	}
}
