package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-exporter/internal/db/sqlc"
	"github.com/stacklok/catalog-exporter/internal/status"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a lease store backed by the export_run table in PostgreSQL
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (p *postgresStore) Upsert(
	ctx context.Context,
	account string,
	typ status.ExportType,
	date time.Time,
	st status.ExportStatus,
) error {
	err := sqlc.New(p.pool).UpsertExportRun(ctx, sqlc.UpsertExportRunParams{
		Account:    account,
		ExportType: sqlc.ExportType(typ),
		ExportDate: truncate(date),
		Status:     sqlc.ExportStatus(st),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert export run %s/%s: %w", account, typ, err)
	}
	return nil
}

func (p *postgresStore) LastByAccountAndStatus(
	ctx context.Context,
	account string,
	st status.ExportStatus,
) (*time.Time, error) {
	date, err := sqlc.New(p.pool).GetLastExportDateByAccountStatus(ctx, sqlc.GetLastExportDateByAccountStatusParams{
		Account: account,
		Status:  sqlc.ExportStatus(st),
	})
	return optionalDate(date, err)
}

func (p *postgresStore) LastSuccessByTypeAndAccount(
	ctx context.Context,
	typ status.ExportType,
	account string,
) (*time.Time, error) {
	date, err := sqlc.New(p.pool).GetLastSuccessfulExportDate(ctx, sqlc.GetLastSuccessfulExportDateParams{
		Account:    account,
		ExportType: sqlc.ExportType(typ),
	})
	return optionalDate(date, err)
}

func (p *postgresStore) ListProcessing(ctx context.Context, excludingAccount string) ([]status.Process, error) {
	rows, err := sqlc.New(p.pool).ListProcessingExports(ctx, excludingAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing exports: %w", err)
	}

	processes := make([]status.Process, 0, len(rows))
	for _, row := range rows {
		processes = append(processes, status.Process{
			Account:    row.Account,
			Type:       status.ExportType(row.ExportType),
			ExportDate: row.ExportDate,
		})
	}
	return processes, nil
}

func (p *postgresStore) List(ctx context.Context) ([]status.Record, error) {
	rows, err := sqlc.New(p.pool).ListExportRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}

	records := make([]status.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, status.Record{
			Account:    row.Account,
			Type:       status.ExportType(row.ExportType),
			ExportDate: row.ExportDate,
			Status:     status.ExportStatus(row.Status),
			UpdatedAt:  row.UpdatedAt,
		})
	}
	return records, nil
}

func (p *postgresStore) Clear(ctx context.Context, account string, typ *status.ExportType) error {
	queries := sqlc.New(p.pool)

	var err error
	if typ == nil {
		err = queries.DeleteExportRunsByAccount(ctx, account)
	} else {
		err = queries.DeleteExportRunsByAccountType(ctx, sqlc.DeleteExportRunsByAccountTypeParams{
			Account:    account,
			ExportType: sqlc.ExportType(*typ),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to clear export runs of %s: %w", account, err)
	}
	return nil
}

func optionalDate(date time.Time, err error) (*time.Time, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last export date: %w", err)
	}
	return &date, nil
}
