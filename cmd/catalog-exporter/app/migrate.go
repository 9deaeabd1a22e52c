package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  `Apply or revert the schema of the export run table in PostgreSQL.`,
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Skip confirmation prompt")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of migration steps to apply (0 = all)")
	addConfigFlag(cmd, true)

	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd())
	return cmd
}

// migrationConnString loads the configuration and returns the PostgreSQL connection string
func migrationConnString(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Database == nil {
		return "", fmt.Errorf("database configuration is required for migrations")
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return "", fmt.Errorf("failed to get connection string: %w", err)
	}
	return connString, nil
}
