package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"property-portal/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Apply the embedded PostgreSQL schema. Statements are idempotent, so running it twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}
