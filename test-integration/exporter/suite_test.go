package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/catalog-exporter/test-integration/exporter/helpers"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
	db     *helpers.Database
)

func TestExporterIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Exporter Integration Suite")
}

var _ = BeforeSuite(func() {
	ctx, cancel = context.WithCancel(context.TODO())

	var err error
	db, err = helpers.StartPostgres(ctx)
	Expect(err).NotTo(HaveOccurred())
	Expect(db.Migrate()).To(Succeed())
	Expect(helpers.SeedCatalog(ctx, db.Pool)).To(Succeed())
})

var _ = AfterSuite(func() {
	if db != nil {
		db.Stop(context.WithoutCancel(ctx))
	}
	cancel()
})

// createTempDir creates a temporary directory for test files
func createTempDir(prefix string) string {
	dir, err := os.MkdirTemp("", prefix)
	Expect(err).NotTo(HaveOccurred())
	return dir
}

// cleanupTempDir removes a temporary directory
func cleanupTempDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		By(fmt.Sprintf("Warning: failed to cleanup temp dir %s: %v", dir, err))
	}
}
