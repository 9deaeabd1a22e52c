package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-exporter/internal/coordinator"
	"github.com/stacklok/catalog-exporter/internal/db"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Database is the catalog and lease database connection (optional)
	Database *db.Connection

	// Store holds the export table
	Store lease.Store

	// Runner executes single export runs
	Runner *runner.Runner

	// Coordinator schedules runs in the background
	Coordinator coordinator.Coordinator

	Telemetry *telemetry.Telemetry
}

func (c *AppComponents) pool() *pgxpool.Pool {
	if c.Database == nil {
		return nil
	}
	return c.Database.Pool
}
