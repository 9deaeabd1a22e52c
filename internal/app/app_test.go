package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/coordinator"
	leasemocks "github.com/stacklok/catalog-exporter/internal/lease/mocks"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
)

func testConfig(t *testing.T, accounts ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Exporter: config.ExporterConfig{OutputDir: t.TempDir()},
	}
	for _, name := range accounts {
		cfg.Accounts = append(cfg.Accounts, config.AccountConfig{Name: name})
	}
	return cfg
}

func TestNewExporterApp_Run(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := leasemocks.NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().ListProcessing(gomock.Any(), "acme").Return(nil, nil),
		store.EXPECT().Upsert(gomock.Any(), "acme", status.ExportTypeFull, gomock.Any(), status.ExportStatusProcessing).Return(nil),
		store.EXPECT().Upsert(gomock.Any(), "acme", status.ExportTypeFull, gomock.Any(), status.ExportStatusSuccess).Return(nil),
	)

	ctx := context.Background()
	app, err := NewExporterApp(ctx, WithConfig(testConfig(t, "acme")), WithStore(store))
	require.NoError(t, err)
	defer app.Close(ctx)

	assert.Same(t, store, app.Store())
	assert.Nil(t, app.components.Database)

	result, err := app.Run(ctx, "acme", status.ExportTypeFull)
	require.NoError(t, err)
	assert.Equal(t, runner.OutcomeSuccess, result.Outcome)
	assert.DirExists(t, result.Dir)
}

func TestNewExporterApp_SQLiteStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "acme")
	cfg.Storage = &config.StorageConfig{
		Type:       config.StorageTypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "exporter.db"),
	}

	ctx := context.Background()
	app, err := NewExporterApp(ctx, WithConfig(cfg))
	require.NoError(t, err)
	defer app.Close(ctx)

	records, err := app.Store().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewExporterApp_DatabaseUnreachable(t *testing.T) {
	t.Parallel()

	_, err := NewExporterApp(context.Background(), WithConfig(testConfig(t, "acme")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestHTTPRoutes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	app, err := NewExporterApp(ctx, WithConfig(testConfig(t)), WithStore(leasemocks.NewMockStore(ctrl)))
	require.NoError(t, err)
	defer app.Close(ctx)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/health", wantCode: http.StatusOK, wantBody: "ok"},
		{path: "/readiness", wantCode: http.StatusOK, wantBody: "ready"},
		{path: "/metrics", wantCode: http.StatusOK, wantBody: "go_goroutines"},
		{path: "/missing", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.GetHTTPServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	app, err := NewExporterApp(ctx,
		WithConfig(testConfig(t)),
		WithStore(leasemocks.NewMockStore(ctrl)),
		WithAddress("127.0.0.1:0"),
		WithCoordinatorOptions(coordinator.WithPollingInterval(time.Hour, 0)))
	require.NoError(t, err)
	defer app.Close(ctx)

	serveCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve(serveCtx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
