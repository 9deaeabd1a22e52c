package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	for name, opts := range map[string][]Option{
		"no_config": nil,
		"disabled":  {WithTelemetryConfig(&Config{Enabled: false})},
		"nothing_enabled": {WithTelemetryConfig(&Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: false},
			Metrics: &MetricsConfig{Enabled: false},
		})},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tel, err := New(context.Background(), opts...)
			require.NoError(t, err)

			_, noopTracer := tel.TracerProvider().(tracenoop.TracerProvider)
			assert.True(t, noopTracer)
			_, noopMeter := tel.MeterProvider().(metricnoop.MeterProvider)
			assert.True(t, noopMeter)
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: -1},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNew_PrometheusExporter(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	tel, err := New(context.Background(),
		WithTelemetryConfig(&Config{
			Enabled: true,
			Metrics: &MetricsConfig{Enabled: true, Exporter: MetricsExporterPrometheus},
		}),
		WithPrometheusRegisterer(registry))
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	_, sdkMeter := tel.MeterProvider().(*sdkmetric.MeterProvider)
	require.True(t, sdkMeter)

	metrics, err := NewRunMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordRows(context.Background(), "acme", "products", 5)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_exporter_rows_exported_total")
}
