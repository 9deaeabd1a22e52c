package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/db"
	"github.com/stacklok/catalog-exporter/internal/lease"
)

// openStore opens the lease store alone, without building the export pipeline.
// The returned close function releases the store and any database pool it uses.
func openStore(ctx context.Context, cfg *config.Config) (lease.Store, func(), error) {
	var (
		conn *db.Connection
		pool *pgxpool.Pool
	)
	if cfg.GetStorageType() == config.StorageTypeDatabase {
		var err error
		conn, err = db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pool = conn.Pool
	}

	store, err := lease.NewStore(cfg, pool)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, nil, fmt.Errorf("failed to open lease store: %w", err)
	}

	closeFn := func() {
		if err := lease.CloseStore(store); err != nil {
			slog.Warn("Failed to close lease store", "error", err)
		}
		if conn != nil {
			conn.Close()
		}
	}
	return store, closeFn, nil
}
