package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Long: `Revert the given number of migrations. With --num-steps 0 every migration is
reverted and the export run table is dropped.`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	prompt := fmt.Sprintf("This will revert %d migration(s).", numSteps)
	if numSteps == 0 {
		prompt = "This will revert ALL migrations and drop the export run table."
	}
	ok, err := confirm(cmd, prompt)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled")
		return nil
	}

	connString, err := migrationConnString(cmd)
	if err != nil {
		return err
	}

	if err := database.MigrateDown(connString, int(numSteps)); err != nil {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	slog.Info("Migrations reverted", "steps", numSteps)
	return nil
}
