// Package app wires configuration, storage, sources and telemetry into the
// export runner and serves the scheduling daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
)

const defaultShutdownTimeout = 30 * time.Second

// ExporterApp holds the components needed to run exports once or on a schedule
type ExporterApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
}

// Run executes a single export run
func (app *ExporterApp) Run(ctx context.Context, account string, typ status.ExportType) (*runner.Result, error) {
	return app.components.Runner.Run(ctx, account, typ)
}

// Serve runs the scheduling coordinator and the health/metrics server until
// ctx is cancelled or one of them fails
func (app *ExporterApp) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.components.Coordinator.Start(gctx)
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down daemon...")

		if err := app.components.Coordinator.Stop(); err != nil {
			slog.Error("Failed to stop coordinator", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Daemon shutdown complete")
		return nil
	})

	return g.Wait()
}

// Store returns the export table store
func (app *ExporterApp) Store() lease.Store {
	return app.components.Store
}

// GetConfig returns the application configuration
func (app *ExporterApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the daemon's HTTP server
func (app *ExporterApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Close releases the store, the database connection and flushes telemetry
func (app *ExporterApp) Close(ctx context.Context) {
	closeComponents(ctx, app.components)
}

func closeComponents(ctx context.Context, c *AppComponents) {
	if c.Store != nil {
		if err := lease.CloseStore(c.Store); err != nil {
			slog.Error("Failed to close export store", "error", err)
		}
	}
	if c.Database != nil {
		c.Database.Close()
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}
}
