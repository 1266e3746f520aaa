package main

import (
	"github.com/spf13/cobra"

	"github.com/bher20/solarvalue/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run history database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Up(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Down(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Status(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
	)
	return cmd
}
