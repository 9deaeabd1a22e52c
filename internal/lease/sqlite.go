package lease

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"k8s.io/utils/clock"
	_ "modernc.org/sqlite"

	"github.com/stacklok/catalog-exporter/internal/status"
)

//go:embed migrations/001_export_run.sql
var sqliteMigrationV1 string

// sqliteStore keeps the export table in a local SQLite file. It coordinates
// processes on a single host only. Dates are stored as unix seconds.
type sqliteStore struct {
	db    *sql.DB
	clock clock.PassiveClock
}

// SQLiteOption configures the SQLite store
type SQLiteOption func(*sqliteStore)

// WithSQLiteClock sets the clock used for the updated_at bookkeeping column
func WithSQLiteClock(c clock.PassiveClock) SQLiteOption {
	return func(s *sqliteStore) {
		s.clock = c
	}
}

// NewSQLiteStore opens (and creates if needed) a SQLite lease store at path
func NewSQLiteStore(path string, opts ...SQLiteOption) (Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating lease store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening lease store: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &sqliteStore{db: db, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *sqliteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(sqliteMigrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Upsert(
	ctx context.Context,
	account string,
	typ status.ExportType,
	date time.Time,
	st status.ExportStatus,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_run (account, export_type, export_date, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account, export_type) DO UPDATE
		SET export_date = excluded.export_date,
		    status = excluded.status,
		    updated_at = excluded.updated_at`,
		account, string(typ), truncate(date).Unix(), string(st), s.clock.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert export run %s/%s: %w", account, typ, err)
	}
	return nil
}

func (s *sqliteStore) LastByAccountAndStatus(
	ctx context.Context,
	account string,
	st status.ExportStatus,
) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT export_date FROM export_run
		WHERE account = ? AND status = ?
		ORDER BY export_date DESC LIMIT 1`,
		account, string(st))
	return scanOptionalDate(row)
}

func (s *sqliteStore) LastSuccessByTypeAndAccount(
	ctx context.Context,
	typ status.ExportType,
	account string,
) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT export_date FROM export_run
		WHERE account = ? AND export_type = ? AND status = 'SUCCESS'
		ORDER BY export_date DESC LIMIT 1`,
		account, string(typ))
	return scanOptionalDate(row)
}

func (s *sqliteStore) ListProcessing(ctx context.Context, excludingAccount string) ([]status.Process, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, export_type, export_date FROM export_run
		WHERE account <> ? AND status = 'PROCESSING'
		ORDER BY export_date`,
		excludingAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing exports: %w", err)
	}
	defer rows.Close()

	var processes []status.Process
	for rows.Next() {
		var (
			p    status.Process
			typ  string
			date int64
		)
		if err := rows.Scan(&p.Account, &typ, &date); err != nil {
			return nil, fmt.Errorf("failed to scan processing export: %w", err)
		}
		p.Type = status.ExportType(typ)
		p.ExportDate = time.Unix(date, 0).UTC()
		processes = append(processes, p)
	}
	return processes, rows.Err()
}

func (s *sqliteStore) List(ctx context.Context) ([]status.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, export_type, export_date, status, updated_at FROM export_run
		ORDER BY account, export_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}
	defer rows.Close()

	var records []status.Record
	for rows.Next() {
		var (
			r                   status.Record
			typ, st             string
			exportDate, updated int64
		)
		if err := rows.Scan(&r.Account, &typ, &exportDate, &st, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan export run: %w", err)
		}
		r.Type = status.ExportType(typ)
		r.Status = status.ExportStatus(st)
		r.ExportDate = time.Unix(exportDate, 0).UTC()
		r.UpdatedAt = time.Unix(updated, 0).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Clear(ctx context.Context, account string, typ *status.ExportType) error {
	var err error
	if typ == nil {
		_, err = s.db.ExecContext(ctx, `DELETE FROM export_run WHERE account = ?`, account)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM export_run WHERE account = ? AND export_type = ?`,
			account, string(*typ))
	}
	if err != nil {
		return fmt.Errorf("failed to clear export runs of %s: %w", account, err)
	}
	return nil
}

func scanOptionalDate(row *sql.Row) (*time.Time, error) {
	var unix int64
	err := row.Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last export date: %w", err)
	}
	date := time.Unix(unix, 0).UTC()
	return &date, nil
}
