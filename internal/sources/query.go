package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/catalog-exporter/internal/export"
)

// QuerySource reads a configured query page by page.
//
// The query may reference the named arguments @account and @since. It is
// wrapped as a subquery so that paging and the id allowlist never require the
// configured SQL to know about them. Paging uses LIMIT/OFFSET, which is only
// stable when the query orders its rows totally.
type QuerySource struct {
	db      Querier
	query   string
	idField string
}

var _ export.Source = (*QuerySource)(nil)

// NewQuerySource creates a source for query. idField names the result column
// matched against the id allowlist of a page request.
func NewQuerySource(db Querier, query, idField string) *QuerySource {
	return &QuerySource{
		db:      db,
		query:   strings.TrimRight(strings.TrimSpace(query), ";"),
		idField: idField,
	}
}

// FetchPage implements export.Source
func (s *QuerySource) FetchPage(ctx context.Context, req export.PageRequest) (*export.Page, error) {
	sql, args := s.pageQuery(req)

	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("failed to execute page query: %w", err)
	}
	defer rows.Close()

	page := &export.Page{Columns: columnNames(rows)}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		page.Rows = append(page.Rows, formatRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return page, nil
}

func (s *QuerySource) pageQuery(req export.PageRequest) (string, pgx.NamedArgs) {
	var b strings.Builder
	b.WriteString("SELECT * FROM (")
	b.WriteString(s.query)
	b.WriteString(") AS page_src")
	if req.IDs != nil {
		b.WriteString(" WHERE page_src.")
		b.WriteString(pgx.Identifier{s.idField}.Sanitize())
		b.WriteString("::text = ANY(@ids)")
	}
	b.WriteString(" LIMIT @limit OFFSET @offset")

	args := pgx.NamedArgs{
		"account": req.Account,
		"limit":   req.Limit,
		"offset":  req.Offset,
	}
	if req.Since != nil {
		args["since"] = *req.Since
	} else {
		args["since"] = nil
	}
	if req.IDs != nil {
		args["ids"] = req.IDs
	}
	return b.String(), args
}

func columnNames(rows pgx.Rows) []string {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
