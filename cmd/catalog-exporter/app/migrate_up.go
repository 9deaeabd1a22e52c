package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	ok, err := confirm(cmd, "This will apply pending migrations to the database.")
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

	if err := database.MigrateUp(connString); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := database.GetVersion(connString)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)
	return nil
}
