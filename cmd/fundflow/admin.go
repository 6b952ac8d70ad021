package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			user, err := a.identity.CreateAdmin(ctx, name, email, password)

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}
