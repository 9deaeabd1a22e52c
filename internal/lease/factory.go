package lease

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-exporter/internal/config"
)

// NewStore creates a Store based on the configured storage type.
//
// For database storage the pool must not be nil. For sqlite storage the
// configured file is opened and migrated.
func NewStore(cfg *config.Config, pool *pgxpool.Pool) (Store, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewPostgresStore(pool), nil
	case config.StorageTypeSQLite:
		return NewSQLiteStore(cfg.GetSQLitePath())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStorage, cfg.GetStorageType())
	}
}

// Closeable is implemented by stores holding resources of their own
type Closeable interface {
	Close() error
}

// CloseStore closes the store if it owns resources
func CloseStore(s Store) error {
	if c, ok := s.(Closeable); ok {
		return c.Close()
	}
	return nil
}
