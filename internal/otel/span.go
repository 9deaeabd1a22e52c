// Package otel provides tracing helpers shared by the export run and the
// scheduling daemon.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for run context, shared so every span names them the same way
const (
	AttrAccount    = attribute.Key("export.account")
	AttrExportType = attribute.Key("export.type")
	AttrRunID      = attribute.Key("export.run_id")
	AttrEntity     = attribute.Key("export.entity")
	AttrOutcome    = attribute.Key("export.outcome")
	AttrRows       = attribute.Key("export.rows")
	AttrTableCount = attribute.Key("export.auxiliary_tables")
)

// StartSpan starts a span on tracer, or returns the span already in ctx when
// tracer is nil.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. Nil spans and nil
// errors are ignored.
// The status description stays generic so query text never ends up in it; the
// full error is kept on the exception event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
	}
}
