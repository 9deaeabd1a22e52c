// Package helpers provides fixtures for the exporter integration tests.
package helpers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/stacklok/catalog-exporter/database"
)

const (
	dbName     = "catalog"
	dbUser     = "exporter"
	dbPassword = "exporter-pass"
)

// Database is a PostgreSQL container shared by the suite
type Database struct {
	Pool       *pgxpool.Pool
	Host       string
	Port       int
	ConnString string

	container *postgres.PostgresContainer
}

// StartPostgres starts a PostgreSQL container and connects a pool to it
func StartPostgres(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	d := &Database{container: container}
	if err := d.connect(ctx); err != nil {
		_ = tc.TerminateContainer(container)
		return nil, err
	}
	return d, nil
}

func (d *Database) connect(ctx context.Context) error {
	host, err := d.container.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := d.container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("failed to get container port: %w", err)
	}
	connString, err := d.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	d.Pool = pool
	d.Host = host
	d.Port = port.Int()
	d.ConnString = connString
	return nil
}

// Migrate applies the export run schema
func (d *Database) Migrate() error {
	return database.MigrateUp(d.ConnString)
}

// ResetRuns deletes every export run record
func (d *Database) ResetRuns(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, "DELETE FROM export_run")
	return err
}

// Stop closes the pool and terminates the container
func (d *Database) Stop(ctx context.Context) {
	d.Pool.Close()
	_ = d.container.Terminate(ctx)
}
