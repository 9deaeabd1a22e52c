// Package lease persists the per-account export run records that coordinate
// export runs across processes.
//
// Each account holds at most one record per run type. A run writes PROCESSING
// when it starts and SUCCESS or FAIL when it ends; other processes read those
// records to decide whether they may start.
package lease

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/catalog-exporter/internal/status"
)

// ErrUnknownStorage is returned by NewStore for an unsupported storage type
var ErrUnknownStorage = errors.New("unknown lease storage type")

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store reads and writes export run records
type Store interface {
	// Upsert records the given status for (account, type). The date is truncated
	// to the minute.
	Upsert(ctx context.Context, account string, typ status.ExportType, date time.Time, st status.ExportStatus) error

	// LastByAccountAndStatus returns the latest export date of the account with the
	// given status, over both run types. It returns nil when there is none.
	LastByAccountAndStatus(ctx context.Context, account string, st status.ExportStatus) (*time.Time, error)

	// LastSuccessByTypeAndAccount returns the export date of the last successful run
	// of the given type, or nil when there is none.
	LastSuccessByTypeAndAccount(ctx context.Context, typ status.ExportType, account string) (*time.Time, error)

	// ListProcessing returns the PROCESSING records of every account except the given one
	ListProcessing(ctx context.Context, excludingAccount string) ([]status.Process, error)

	// List returns every record ordered by account and type
	List(ctx context.Context) ([]status.Record, error)

	// Clear deletes the records of an account. A nil type clears both run types.
	Clear(ctx context.Context, account string, typ *status.ExportType) error
}

func truncate(date time.Time) time.Time {
	return date.UTC().Truncate(time.Minute)
}
