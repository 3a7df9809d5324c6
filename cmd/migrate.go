package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mynotes/config/database/migrations"
)

var errNoDatabase = errors.New("no database configured (set database.url or DATABASE_URL)")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if db == nil {
			return errNoDatabase
		}
		defer db.Close()

		if err := migrations.MigrateUp(db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		if db == nil {
			return errNoDatabase
		}
		defer db.Close()

		current, latest, dirty, err := migrations.Status(db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "current: %d\nlatest:  %d\n", current, latest)
		if dirty {
			fmt.Fprintln(out, "state:   dirty (a migration failed midway)")
		} else if current < latest {
			fmt.Fprintf(out, "pending: %d\n", latest-current)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
