package lease

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stacklok/catalog-exporter/database"
	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/status"
)

// testStoreBehaviour exercises the Store contract against a fresh, empty store
func testStoreBehaviour(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("upsert_truncates_and_overwrites", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base, status.ExportStatusProcessing))
		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base.Add(time.Hour), status.ExportStatusSuccess))

		records, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "acme", records[0].Account)
		assert.Equal(t, status.ExportTypeFull, records[0].Type)
		assert.Equal(t, status.ExportStatusSuccess, records[0].Status)
		assert.True(t, base.Add(time.Hour).Truncate(time.Minute).Equal(records[0].ExportDate),
			"got %s", records[0].ExportDate)
	})

	t.Run("last_success_by_type", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		got, err := store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeFull, "acme")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base, status.ExportStatusSuccess))
		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeDelta, base, status.ExportStatusFail))

		got, err = store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeFull, "acme")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, base.Truncate(time.Minute).Equal(*got))

		got, err = store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeDelta, "acme")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("last_by_status_spans_types", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base, status.ExportStatusSuccess))
		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeDelta, base.Add(30*time.Minute), status.ExportStatusSuccess))

		got, err := store.LastByAccountAndStatus(ctx, "acme", status.ExportStatusSuccess)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, base.Add(30*time.Minute).Truncate(time.Minute).Equal(*got))

		got, err = store.LastByAccountAndStatus(ctx, "other", status.ExportStatusSuccess)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list_processing_excludes_account", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base, status.ExportStatusProcessing))
		require.NoError(t, store.Upsert(ctx, "globex", status.ExportTypeDelta, base, status.ExportStatusProcessing))
		require.NoError(t, store.Upsert(ctx, "initech", status.ExportTypeFull, base, status.ExportStatusSuccess))

		processes, err := store.ListProcessing(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, processes, 1)
		assert.Equal(t, "globex", processes[0].Account)
		assert.Equal(t, status.ExportTypeDelta, processes[0].Type)
	})

	t.Run("clear_by_type_and_all", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeFull, base, status.ExportStatusSuccess))
		require.NoError(t, store.Upsert(ctx, "acme", status.ExportTypeDelta, base, status.ExportStatusSuccess))
		require.NoError(t, store.Upsert(ctx, "globex", status.ExportTypeFull, base, status.ExportStatusSuccess))

		delta := status.ExportTypeDelta
		require.NoError(t, store.Clear(ctx, "acme", &delta))
		records, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 2)

		require.NoError(t, store.Clear(ctx, "acme", nil))
		records, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "globex", records[0].Account)
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	testStoreBehaviour(t, func(t *testing.T) Store {
		t.Helper()
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "lease.db"))
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, CloseStore(store)) })
		return store
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "lease.db")
	fakeClock := clocktesting.NewFakePassiveClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	store, err := NewSQLiteStore(path, WithSQLiteClock(fakeClock))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), "acme", status.ExportTypeFull,
		fakeClock.Now(), status.ExportStatusProcessing))
	require.NoError(t, CloseStore(store))

	// Migrations must be idempotent across restarts
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, CloseStore(store)) }()

	records, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fakeClock.Now(), records[0].UpdatedAt)
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	t.Parallel()

	pool, cleanup := database.SetupTestDB(t)
	t.Cleanup(cleanup)

	testStoreBehaviour(t, func(t *testing.T) Store {
		t.Helper()
		_, err := pool.Exec(context.Background(), "TRUNCATE export_run")
		require.NoError(t, err)
		return NewPostgresStore(pool)
	})
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	t.Run("database_requires_pool", func(t *testing.T) {
		t.Parallel()
		_, err := NewStore(&config.Config{}, nil)
		require.Error(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{Storage: &config.StorageConfig{
			Type:       config.StorageTypeSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "lease.db"),
		}}
		store, err := NewStore(cfg, nil)
		require.NoError(t, err)
		require.NoError(t, CloseStore(store))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{Storage: &config.StorageConfig{Type: "etcd"}}
		_, err := NewStore(cfg, nil)
		require.ErrorIs(t, err, ErrUnknownStorage)
	})
}
