package registrar

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-exporter/internal/status"
)

func TestManifestRegistrar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	started := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	r := NewManifestRegistrar(dir, "run-1", "acme", status.ExportTypeDelta, started)

	require.NoError(t, r.RegisterEntityFile(filepath.Join(dir, "products.csv"), "products", "product_id",
		[]string{"product_id", "name"}))
	require.NoError(t, r.RegisterRelationFile(filepath.Join(dir, "product_image.csv"), "product_id",
		[]string{"image_url"}, map[string]string{"splitValues": "|"}))
	require.NoError(t, r.RegisterAuxiliaryTable(filepath.Join(dir, "extra_product_badges.csv"), "products",
		"product_id", []string{"product_id", "badge"}))
	require.NoError(t, r.RegisterEntityFile("/elsewhere/customers.csv", "customers", "customer_id", nil))

	require.NoError(t, r.Finalize(status.ExportStatusSuccess, started.Add(time.Minute)))

	m, err := ReadManifest(r.Path())
	require.NoError(t, err)

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, "acme", m.Account)
	assert.Equal(t, status.ExportTypeDelta, m.Type)
	assert.Equal(t, status.ExportStatusSuccess, m.Status)
	assert.True(t, started.Equal(m.StartedAt))
	assert.True(t, started.Add(time.Minute).Equal(m.CompletedAt))

	require.Len(t, m.Entities, 2)
	assert.Equal(t, "products.csv", m.Entities[0].Path)
	assert.Equal(t, "/elsewhere/customers.csv", m.Entities[1].Path)

	require.Len(t, m.Relations, 1)
	assert.Equal(t, "product_image.csv", m.Relations[0].Path)
	assert.Equal(t, map[string]string{"splitValues": "|"}, m.Relations[0].Params)

	require.Len(t, m.AuxiliaryTables, 1)
	assert.Equal(t, "product_id", m.AuxiliaryTables[0].JoinColumn)
}

func TestManifestRegistrar_ClosedAfterFinalize(t *testing.T) {
	t.Parallel()

	r := NewManifestRegistrar(t.TempDir(), "run-2", "acme", status.ExportTypeFull, time.Now())
	require.NoError(t, r.Finalize(status.ExportStatusFail, time.Now()))

	assert.Error(t, r.RegisterEntityFile("products.csv", "products", "id", nil))
	assert.Error(t, r.Finalize(status.ExportStatusSuccess, time.Now()))
}

func TestReadManifest_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadManifest(filepath.Join(t.TempDir(), ManifestFileName))
	require.Error(t, err)
}
