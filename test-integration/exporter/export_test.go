package integration

import (
	"bytes"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	cli "github.com/stacklok/catalog-exporter/cmd/catalog-exporter/app"
	"github.com/stacklok/catalog-exporter/internal/app"
	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/export"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
	"github.com/stacklok/catalog-exporter/test-integration/exporter/helpers"
)

var _ = Describe("Export runs", Label("postgres"), func() {
	var (
		tempDir    string
		outputDir  string
		configPath string
		cfg        *config.Config
		windows    helpers.DeltaWindows
	)

	runExport := func(account string, typ status.ExportType) *runner.Result {
		exporterApp, err := app.NewExporterApp(ctx, app.WithConfig(cfg))
		Expect(err).NotTo(HaveOccurred())
		defer exporterApp.Close(ctx)

		result, err := exporterApp.Run(ctx, account, typ)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).NotTo(BeNil())
		return result
	}

	records := func() []status.Record {
		list, err := lease.NewPostgresStore(db.Pool).List(ctx)
		Expect(err).NotTo(HaveOccurred())
		return list
	}

	BeforeEach(func() {
		tempDir = createTempDir("exporter-test-")
		outputDir = filepath.Join(tempDir, "exports")
		windows = helpers.DeltaWindows{Frequency: "30m", FullRange: "1h"}
		Expect(db.ResetRuns(ctx)).To(Succeed())
	})

	JustBeforeEach(func() {
		var err error
		configPath, cfg, err = helpers.WriteConfig(tempDir, db, outputDir, windows)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanupTempDir(tempDir)
	})

	Context("full run", func() {
		It("writes entity, relation and side table files", func() {
			result := runExport("acme", status.ExportTypeFull)
			Expect(result.Outcome).To(Equal(runner.OutcomeSuccess))
			Expect(result.Dir).To(HavePrefix(filepath.Join(outputDir, "acme")))

			By("exporting the account's products only")
			Expect(helpers.ReadCSV(result.Dir, "products.csv")).To(Equal([][]string{
				{"product_id", "name", "price"},
				{helpers.BootsID, "boots", "49.90"},
				{helpers.ScarfID, "scarf", ""},
			}))

			By("writing relations with resolved values")
			Expect(helpers.ReadCSV(result.Dir, "product_category.csv")).To(Equal([][]string{
				{"product_id", "category"},
				{helpers.BootsID, "footwear"},
				{helpers.ScarfID, "accessories"},
			}))
			Expect(helpers.ReadCSV(result.Dir, "product_image.csv")).To(Equal([][]string{
				{"product_id", "image_url"},
				{helpers.BootsID, "https://cdn.example.com/m1.jpg|https://cdn.example.com/m2.jpg"},
			}))
			Expect(helpers.ReadCSV(result.Dir, "customers.csv")).To(Equal([][]string{
				{"customer_id", "email"},
				{"1", "ada@example.com"},
			}))

			By("exporting the side tables that exist and have rows")
			Expect(helpers.ReadCSV(result.Dir, export.AuxiliaryFileName("product_badges"))).To(Equal([][]string{
				{"product_id", "badge"},
				{helpers.BootsID, "new"},
			}))
			failures := map[string]error{}
			for _, t := range result.Tables {
				if t.Err != nil {
					failures[t.Table] = t.Err
				}
			}
			Expect(failures).To(HaveLen(2))
			Expect(failures["product_notes"]).To(MatchError(export.ErrEmptyTable))
			Expect(failures["product_missing"]).To(MatchError(export.ErrTableNotFound))

			By("recording the run in the manifest and the export table")
			manifest := helpers.ReadManifest(result.Dir)
			Expect(manifest.Status).To(Equal(status.ExportStatusSuccess))
			Expect(manifest.Entities).To(HaveLen(2))
			Expect(manifest.Relations).To(HaveLen(2))
			Expect(manifest.AuxiliaryTables).To(HaveLen(1))

			Expect(records()).To(ConsistOf(
				And(
					HaveField("Account", "acme"),
					HaveField("Type", status.ExportTypeFull),
					HaveField("Status", status.ExportStatusSuccess),
				),
			))
		})

		It("is refused while another account is exporting", func() {
			store := lease.NewPostgresStore(db.Pool)
			Expect(store.Upsert(ctx, "globex", status.ExportTypeFull, time.Now(), status.ExportStatusProcessing)).To(Succeed())

			result := runExport("acme", status.ExportTypeFull)
			Expect(result.Outcome).To(Equal(runner.OutcomeDenied))
			Expect(result.Reason).To(Equal(runner.ReasonConcurrentRun))
			Expect(records()).To(HaveLen(1))
		})

		It("takes over from a stale PROCESSING record", func() {
			store := lease.NewPostgresStore(db.Pool)
			stale := time.Now().Add(-time.Hour)
			Expect(store.Upsert(ctx, "globex", status.ExportTypeFull, stale, status.ExportStatusProcessing)).To(Succeed())

			result := runExport("acme", status.ExportTypeFull)
			Expect(result.Outcome).To(Equal(runner.OutcomeSuccess))
		})
	})

	Context("delta run", func() {
		It("is refused without a settled full run", func() {
			result := runExport("acme", status.ExportTypeDelta)
			Expect(result.Outcome).To(Equal(runner.OutcomeDenied))
			Expect(result.Reason).To(Equal(runner.ReasonDeltaNotDue))

			runExport("acme", status.ExportTypeFull)
			result = runExport("acme", status.ExportTypeDelta)
			Expect(result.Outcome).To(Equal(runner.OutcomeDenied))
			Expect(result.Reason).To(Equal(runner.ReasonDeltaNotDue))
		})

		When("the delta windows have elapsed", func() {
			BeforeEach(func() {
				windows = helpers.DeltaWindows{Frequency: "0s", FullRange: "0s"}
			})

			It("exports only the entities changed since the last success", func() {
				Expect(runExport("acme", status.ExportTypeFull).Outcome).To(Equal(runner.OutcomeSuccess))
				Expect(helpers.TouchProduct(ctx, db.Pool, helpers.ScarfID)).To(Succeed())

				result := runExport("acme", status.ExportTypeDelta)
				Expect(result.Outcome).To(Equal(runner.OutcomeSuccess))

				Expect(helpers.ReadCSV(result.Dir, "products.csv")).To(Equal([][]string{
					{"product_id", "name", "price"},
					{helpers.ScarfID, "scarf", ""},
				}))
				Expect(helpers.ReadCSV(result.Dir, "product_category.csv")).To(Equal([][]string{
					{"product_id", "category"},
					{helpers.ScarfID, "accessories"},
				}))

				var skipped []string
				for _, c := range result.Components {
					if c.Skipped {
						skipped = append(skipped, c.Entity)
					}
				}
				Expect(skipped).To(ConsistOf("customers"))

				Expect(records()).To(ContainElement(And(
					HaveField("Type", status.ExportTypeDelta),
					HaveField("Status", status.ExportStatusSuccess),
				)))
			})
		})
	})

	Context("command line", func() {
		It("runs an export and reports the recorded status", func() {
			var out bytes.Buffer
			cmd := cli.NewRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"run", "--config", configPath, "--account", "globex"})
			Expect(cmd.ExecuteContext(ctx)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("FULL export of globex completed: 4 rows"))

			out.Reset()
			cmd = cli.NewRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"status", "--config", configPath})
			Expect(cmd.ExecuteContext(ctx)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("globex"))
			Expect(out.String()).To(ContainSubstring("SUCCESS"))
		})
	})
})
