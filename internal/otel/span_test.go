package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("test")
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil_tracer", func(t *testing.T) {
		t.Parallel()
		ctx, span := StartSpan(context.Background(), nil, "export.run")
		require.NotNil(t, ctx)
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("records_attributes", func(t *testing.T) {
		t.Parallel()
		exporter, tracer := newTestTracer(t)

		_, span := StartSpan(context.Background(), tracer, "export.run",
			trace.WithAttributes(AttrAccount.String("acme"), AttrExportType.String("FULL")))
		assert.True(t, span.SpanContext().IsValid())
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "export.run", spans[0].Name)

		attrs := map[string]string{}
		for _, attr := range spans[0].Attributes {
			attrs[string(attr.Key)] = attr.Value.AsString()
		}
		assert.Equal(t, "acme", attrs["export.account"])
		assert.Equal(t, "FULL", attrs["export.type"])
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
	assert.NotPanics(t, func() { RecordError(nil, nil) })

	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantEvent  bool
	}{
		{name: "nil_error", err: nil, wantStatus: codes.Unset},
		{name: "error", err: errors.New("relation query failed"), wantStatus: codes.Error, wantEvent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exporter, tracer := newTestTracer(t)
			_, span := tracer.Start(context.Background(), "export.component")

			RecordError(span, tt.err)
			span.End()

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			if !tt.wantEvent {
				assert.Empty(t, spans[0].Events)
				return
			}
			assert.Equal(t, "export failed", spans[0].Status.Description)
			require.NotEmpty(t, spans[0].Events)
			assert.Equal(t, "exception", spans[0].Events[0].Name)
		})
	}
}
