package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/internal/app"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single export of an account",
		Long: `Run a single FULL or DELTA export of an account.

A run refused because another account is exporting, or because a delta run is
not due yet, is not an error: the command logs the reason and exits 0.

Examples:
  catalog-exporter run --config config.yaml --account acme
  catalog-exporter run --config config.yaml --account acme --type delta`,
		RunE: runExport,
	}

	addConfigFlag(cmd, false)
	cmd.Flags().String("account", "", "Account to export (required)")
	cmd.Flags().String("type", "full", "Export type (full or delta)")
	if err := cmd.MarkFlagRequired("account"); err != nil {
		panic(err)
	}
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	account, err := cmd.Flags().GetString("account")
	if err != nil {
		return fmt.Errorf("failed to get account flag: %w", err)
	}
	typeFlag, err := cmd.Flags().GetString("type")
	if err != nil {
		return fmt.Errorf("failed to get type flag: %w", err)
	}
	typ, err := status.ParseExportType(typeFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, ok := cfg.Account(account); !ok {
		return fmt.Errorf("account %q is not configured", account)
	}

	exporterApp, err := app.NewExporterApp(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}
	defer exporterApp.Close(context.WithoutCancel(ctx))

	result, err := exporterApp.Run(ctx, account, typ)
	if err != nil {
		return err
	}

	if result.Outcome == runner.OutcomeDenied {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s export of %s not started: %s\n", typ, account, result.Reason)
		return err
	}

	for _, t := range result.Tables {
		if t.Err != nil {
			slog.Warn("Auxiliary table skipped", "table", t.Table, "error", t.Err)
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s export of %s completed: %d rows in %s (%s)\n",
		typ, account, result.Rows(), result.Dir, result.Duration)
	return err
}
