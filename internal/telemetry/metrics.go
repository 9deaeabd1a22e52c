package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetricsMeterName is the name used for the export run meter
const RunMetricsMeterName = "github.com/stacklok/catalog-exporter/runner"

// RunMetrics holds the OpenTelemetry instruments for export runs
type RunMetrics struct {
	runDuration  metric.Float64Histogram
	rowsExported metric.Int64Counter
	auxFailures  metric.Int64Counter
	denials      metric.Int64Counter
}

// NewRunMetrics creates the run instruments on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRunMetrics(provider metric.MeterProvider) (*RunMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RunMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"catalog_exporter_run_duration_seconds",
		metric.WithDescription("Duration of export runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200),
	)
	if err != nil {
		return nil, err
	}

	rowsExported, err := meter.Int64Counter(
		"catalog_exporter_rows_exported_total",
		metric.WithDescription("Rows written to export files"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	auxFailures, err := meter.Int64Counter(
		"catalog_exporter_auxiliary_table_failures_total",
		metric.WithDescription("Auxiliary tables skipped because of an error"),
		metric.WithUnit("{table}"),
	)
	if err != nil {
		return nil, err
	}

	denials, err := meter.Int64Counter(
		"catalog_exporter_run_denials_total",
		metric.WithDescription("Runs not started because another run or the delta policy denied them"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		runDuration:  runDuration,
		rowsExported: rowsExported,
		auxFailures:  auxFailures,
		denials:      denials,
	}, nil
}

// RecordRun records the duration and outcome of a completed run
func (m *RunMetrics) RecordRun(ctx context.Context, account, runType, outcome string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("type", runType),
		attribute.String("outcome", outcome),
	))
}

// RecordRows adds the rows written for an entity
func (m *RunMetrics) RecordRows(ctx context.Context, account, entity string, rows int) {
	if m == nil || m.rowsExported == nil || rows <= 0 {
		return
	}
	m.rowsExported.Add(ctx, int64(rows), metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("entity", entity),
	))
}

// RecordAuxiliaryFailure counts a skipped auxiliary table
func (m *RunMetrics) RecordAuxiliaryFailure(ctx context.Context, account, table string) {
	if m == nil || m.auxFailures == nil {
		return
	}
	m.auxFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("table", table),
	))
}

// RecordDenial counts a run that was not allowed to start
func (m *RunMetrics) RecordDenial(ctx context.Context, account, runType, reason string) {
	if m == nil || m.denials == nil {
		return
	}
	m.denials.Add(ctx, 1, metric.WithAttributes(
		attribute.String("account", account),
		attribute.String("type", runType),
		attribute.String("reason", reason),
	))
}
