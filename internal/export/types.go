// Package export implements the paginated export of entity catalogs into flat
// files.
//
// An Exporter reads a Source one bounded page at a time, streams the rows to a
// Sink in segments, writes a single header row per file and registers every
// produced file with a Registrar. Auxiliary tables configured per account are
// exported the same way on a best-effort basis.
package export

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/catalog-exporter/internal/status"
)

var (
	// ErrTableNotFound is returned for an auxiliary table without columns
	ErrTableNotFound = errors.New("table does not exist")

	// ErrEmptyTable is returned for an auxiliary table without rows
	ErrEmptyTable = errors.New("table is empty")
)

//go:generate mockgen -destination=mocks/mock_types.go -package=mocks -source=types.go Source,Sink,Registrar,Resolver,TableReader

// Page is one bounded slice of a query result. Columns are ordered as in Rows.
type Page struct {
	Columns []string
	Rows    [][]string
}

// PageRequest selects a page of a Source
type PageRequest struct {
	// Account is the tenant whose rows are read
	Account string

	// Since is the lower bound of changed rows for delta queries; nil on full runs
	Since *time.Time

	Offset int
	Limit  int

	// IDs restricts the page to the given entity ids. A nil slice applies no
	// filter; an empty non-nil slice matches nothing.
	IDs []string
}

// Source returns pages of an entity or relation query
type Source interface {
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// Sink receives the records of output files
type Sink interface {
	// Append appends records to the named file, creating it when needed.
	// Appending no records creates an empty file.
	Append(fileName string, records [][]string) error

	// Path returns the location of the named file
	Path(fileName string) string
}

// Registrar records produced files with the indexing service
type Registrar interface {
	RegisterEntityFile(path, entity, idField string, columns []string) error
	RegisterRelationFile(path, joinKey string, valueColumns []string, params map[string]string) error
	RegisterAuxiliaryTable(path, entity, joinColumn string, columns []string) error
}

// Resolver maps a raw column value to its derived value (e.g. media id to URL)
type Resolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

// TableReader gives access to auxiliary side tables
type TableReader interface {
	// Columns returns the column names of the table; none when it does not exist
	Columns(ctx context.Context, account, table string) ([]string, error)

	// Content returns up to limit rows of the table starting at offset. Rows are
	// ordered by all of columns so that pages never overlap.
	Content(ctx context.Context, account, table string, columns []string, offset, limit int) ([][]string, error)
}

// Scope identifies the run a component is exported for
type Scope struct {
	Account string
	Type    status.ExportType

	// Since is the last successful export of the account; used by delta queries
	Since *time.Time
}

// IsDelta reports whether the scope is a delta run
func (s Scope) IsDelta() bool {
	return s.Type == status.ExportTypeDelta
}

// Component is an exported entity: a primary file plus its relation files
type Component struct {
	Entity   string
	MainFile string
	IDField  string

	// Primary reads every entity of the account
	Primary Source

	// Delta reads entities changed since Scope.Since. Components without one
	// are skipped on delta runs.
	Delta Source

	// ScopeRelations restricts relations of full runs to the exported ids
	ScopeRelations bool

	Relations []Relation
}

// Relation is a file linking the primary entity to one attribute
type Relation struct {
	Name         string
	File         string
	IDField      string
	ValueColumns []string
	Params       map[string]string

	Source Source

	// HeaderColumns are written when the relation is empty and the source
	// reports no columns
	HeaderColumns []string

	Resolve *ColumnResolver
}

// ColumnResolver resolves every value of a column, splitting multi-valued cells
type ColumnResolver struct {
	Column    string
	Separator string
	Resolver  Resolver
}
