package helpers

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"

	"github.com/stacklok/catalog-exporter/internal/registrar"
)

// ReadCSV reads an exported file of a run directory
func ReadCSV(dir, fileName string) [][]string {
	f, err := os.Open(filepath.Join(dir, fileName))
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = f.Close()
	}()

	records, err := csv.NewReader(f).ReadAll()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return records
}

// ReadManifest reads the manifest of a run directory
func ReadManifest(dir string) *registrar.Manifest {
	m, err := registrar.ReadManifest(filepath.Join(dir, registrar.ManifestFileName))
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return m
}
