package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/internal/app"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run exports of all accounts on a schedule",
		Long: `Start the scheduling daemon.

The daemon polls the configured accounts every couple of minutes. An account gets
a FULL export when its last successful full export is older than
delta.fullInterval, and a DELTA export otherwise. The daemon serves /health,
/readiness and /metrics on --address.`,
		RunE: runSchedule,
	}

	addConfigFlag(cmd, false)
	cmd.Flags().String("address", ":8080", "Address of the health and metrics server")
	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exporterApp, err := app.NewExporterApp(ctx, app.WithConfig(cfg), app.WithAddress(address))
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}
	defer exporterApp.Close(context.WithoutCancel(ctx))

	slog.Info("Starting scheduling daemon", "address", address, "accounts", len(cfg.Accounts))
	return exporterApp.Serve(ctx)
}
