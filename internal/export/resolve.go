package export

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// maxReportedFailures bounds the failures kept in a ResolveReport
const maxReportedFailures = 20

// ResolveReport counts the outcome of resolving a column of one file
type ResolveReport struct {
	Column   string
	Resolved int
	Failed   int

	// Failures holds the first failures in encounter order
	Failures []ResolveFailure
}

// ResolveFailure is a value that could not be resolved and was kept as is
type ResolveFailure struct {
	Value string
	Err   error
}

func (r *ResolveReport) fail(value string, err error) {
	r.Failed++
	if len(r.Failures) < maxReportedFailures {
		r.Failures = append(r.Failures, ResolveFailure{Value: value, Err: err})
	}
}

// resolveRows rewrites the resolver's column of every row in place. A value is
// split on the separator, each part resolved on its own and the parts rejoined.
// Parts that fail to resolve are kept unchanged.
func resolveRows(ctx context.Context, p *Page, cr *ColumnResolver, report *ResolveReport) {
	idx := slices.Index(p.Columns, cr.Column)
	if idx < 0 {
		slog.Warn("Resolve column not found in page", "column", cr.Column, "columns", p.Columns)
		return
	}

	for _, row := range p.Rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		row[idx] = resolveValue(ctx, row[idx], cr, report)
	}
}

func resolveValue(ctx context.Context, value string, cr *ColumnResolver, report *ResolveReport) string {
	parts := []string{value}
	if cr.Separator != "" {
		parts = strings.Split(value, cr.Separator)
	}

	for i, part := range parts {
		if part == "" {
			continue
		}
		resolved, err := cr.Resolver.Resolve(ctx, part)
		if err != nil {
			slog.Warn("Failed to resolve value", "column", cr.Column, "value", part, "error", err)
			report.fail(part, err)
			continue
		}
		parts[i] = resolved
		report.Resolved++
	}

	return strings.Join(parts, cr.Separator)
}
