package export

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

const (
	// DefaultStep is the page size used when none is configured
	DefaultStep = 10000

	// DefaultLimit is the row ceiling used when none is configured
	DefaultLimit = 3000000

	// DefaultDataSaveStep is the append segment size used when none is configured
	DefaultDataSaveStep = 500
)

// Exporter writes the files of one run to a Sink and registers them
type Exporter struct {
	sink         Sink
	registrar    Registrar
	step         int
	limit        int
	dataSaveStep int
}

// Option configures an Exporter
type Option func(*Exporter)

// WithStep sets the page size
func WithStep(step int) Option {
	return func(e *Exporter) {
		if step > 0 {
			e.step = step
		}
	}
}

// WithLimit sets the maximum number of rows read per file
func WithLimit(limit int) Option {
	return func(e *Exporter) {
		if limit > 0 {
			e.limit = limit
		}
	}
}

// WithDataSaveStep sets the number of records appended to the sink at once
func WithDataSaveStep(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.dataSaveStep = n
		}
	}
}

// NewExporter creates an Exporter writing to sink and registering with registrar
func NewExporter(sink Sink, registrar Registrar, opts ...Option) *Exporter {
	e := &Exporter{
		sink:         sink,
		registrar:    registrar,
		step:         DefaultStep,
		limit:        DefaultLimit,
		dataSaveStep: DefaultDataSaveStep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileSpec describes one paginated output file
type FileSpec struct {
	FileName string
	Source   Source
	Scope    Scope

	// IDs restricts the source to the given ids; see PageRequest.IDs
	IDs []string

	// HeaderColumns is the fallback header when the source reports no columns
	HeaderColumns []string

	// CollectColumn, when set, gathers the values of that column into FileResult.IDs
	CollectColumn string

	Resolve *ColumnResolver

	// Register is called once with the file path and header after the file is written
	Register func(path string, columns []string) error
}

// FileResult summarizes an exported file
type FileResult struct {
	FileName string
	Path     string
	Columns  []string
	Rows     int
	Pages    int

	// IDs holds the collected column values; non-nil whenever collection was requested
	IDs []string

	Resolve *ResolveReport
}

// ExportFile runs the paginated export of a single file.
//
// Pages of Step rows are read while the rows read so far plus one more page stay
// within Limit. The first non-empty page gets the header row prepended; an empty
// first page produces a header-only file. Reading stops at an empty page or as
// soon as a page returns fewer than Step-1 rows.
func (e *Exporter) ExportFile(ctx context.Context, spec FileSpec) (*FileResult, error) {
	logger := slog.With("account", spec.Scope.Account, "file", spec.FileName)

	result := &FileResult{
		FileName: spec.FileName,
		Path:     e.sink.Path(spec.FileName),
		Columns:  spec.HeaderColumns,
	}
	if spec.CollectColumn != "" {
		result.IDs = []string{}
	}
	if spec.Resolve != nil {
		result.Resolve = &ResolveReport{Column: spec.Resolve.Column}
	}

	headerWritten := false
	for page := 1; result.Rows+e.step <= e.limit; page++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("export of %s interrupted: %w", spec.FileName, err)
		}

		p, err := e.fetch(ctx, spec, page)
		if err != nil {
			return result, fmt.Errorf("failed to fetch page %d of %s: %w", page, spec.FileName, err)
		}
		result.Pages++
		if len(p.Columns) > 0 {
			result.Columns = p.Columns
		}

		if len(p.Rows) == 0 {
			if page == 1 {
				logger.Info("No rows to export, writing header only")
				if err := e.sink.Append(spec.FileName, headerRecords(result.Columns)); err != nil {
					return result, fmt.Errorf("failed to write header of %s: %w", spec.FileName, err)
				}
			}
			break
		}

		if spec.Resolve != nil {
			resolveRows(ctx, p, spec.Resolve, result.Resolve)
		}
		if spec.CollectColumn != "" {
			if err := collectColumn(p, spec.CollectColumn, &result.IDs); err != nil {
				return result, fmt.Errorf("%s: %w", spec.FileName, err)
			}
		}

		batch := p.Rows
		if !headerWritten {
			batch = append([][]string{slices.Clone(result.Columns)}, p.Rows...)
			headerWritten = true
		}
		for _, segment := range chunk(batch, e.dataSaveStep) {
			if err := e.sink.Append(spec.FileName, segment); err != nil {
				return result, fmt.Errorf("failed to append to %s: %w", spec.FileName, err)
			}
		}

		result.Rows += len(p.Rows)
		logger.Debug("Exported page", "page", page, "rows", len(p.Rows), "total", result.Rows)

		if len(p.Rows) < e.step-1 {
			break
		}
	}

	if spec.Register != nil {
		if err := spec.Register(result.Path, result.Columns); err != nil {
			return result, fmt.Errorf("failed to register %s: %w", spec.FileName, err)
		}
	}

	logger.Info("Exported file", "rows", result.Rows, "pages", result.Pages)
	return result, nil
}

func (e *Exporter) fetch(ctx context.Context, spec FileSpec, page int) (*Page, error) {
	// An empty allowlist can never match a row.
	if spec.IDs != nil && len(spec.IDs) == 0 {
		return &Page{}, nil
	}

	p, err := spec.Source.FetchPage(ctx, PageRequest{
		Account: spec.Scope.Account,
		Since:   spec.Scope.Since,
		Offset:  (page - 1) * e.step,
		Limit:   e.step,
		IDs:     spec.IDs,
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &Page{}, nil
	}
	return p, nil
}

func headerRecords(columns []string) [][]string {
	if len(columns) == 0 {
		return nil
	}
	return [][]string{slices.Clone(columns)}
}

func collectColumn(p *Page, column string, dst *[]string) error {
	idx := slices.Index(p.Columns, column)
	if idx < 0 {
		return fmt.Errorf("id column %q not found in %v", column, p.Columns)
	}
	for _, row := range p.Rows {
		if idx < len(row) {
			*dst = append(*dst, row[idx])
		}
	}
	return nil
}
