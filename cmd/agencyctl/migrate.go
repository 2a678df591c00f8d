package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.db.RunMigrations(e.cfg.Server.MigrationsPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.db.MigrateDown(e.cfg.Server.MigrationsPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "goto <version>",
		Short:   "Migrate up or down to a specific version",
		Example: "  agencyctl migrate goto 3",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()
			return e.db.MigrateToVersion(e.cfg.Server.MigrationsPath, uint(version))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			version, dirty, err := e.db.MigrationVersion(e.cfg.Server.MigrationsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if version == 0 {
				fmt.Fprintln(out, "no migrations applied")
				return nil
			}
			fmt.Fprintf(out, "version %d", version)
			if dirty {
				fmt.Fprint(out, " (dirty)")
			}
			fmt.Fprintln(out)
			return nil
		},
	})

	return cmd
}
