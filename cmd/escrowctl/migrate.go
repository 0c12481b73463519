package main

import (
	"fmt"

	"github.com/saeid-a/CoachEscrow/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the embedded schema migrations",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDBURL(); err != nil {
			return err
		}

		direction := database.MigrateUp
		if len(args) == 1 {
			direction = database.MigrationDirection(args[0])
		}
		if err := database.Migrate(dbURL, direction); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s successful\n", direction)
		return nil
	},
}
