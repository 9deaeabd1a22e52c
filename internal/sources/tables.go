package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/catalog-exporter/internal/export"
)

// TableReader reads auxiliary tables. Each account may keep its side tables in
// its own schema; accounts without one use the connection's current schema.
type TableReader struct {
	db      Querier
	schemas map[string]string
}

var _ export.TableReader = (*TableReader)(nil)

// NewTableReader creates a reader. schemas maps account names to schema names.
func NewTableReader(db Querier, schemas map[string]string) *TableReader {
	return &TableReader{db: db, schemas: schemas}
}

// Columns implements export.TableReader. It returns no columns for a missing table.
func (r *TableReader) Columns(ctx context.Context, account, table string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(@schema, ''), current_schema())
		  AND table_name = @table
		ORDER BY ordinal_position`,
		pgx.NamedArgs{"schema": r.schemas[account], "table": table})
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}

	columns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}
	return columns, nil
}

// Content implements export.TableReader. Rows are ordered by every column in
// turn; paging with OFFSET is only stable over a total order.
func (r *TableReader) Content(
	ctx context.Context,
	account, table string,
	columns []string,
	offset, limit int,
) ([][]string, error) {
	sql := contentQuery(r.identifier(account, table), columns)

	rows, err := r.db.Query(ctx, sql, pgx.NamedArgs{"limit": limit, "offset": offset})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var content [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to decode row of %s: %w", table, err)
		}
		content = append(content, formatRow(values))
	}
	return content, rows.Err()
}

func (r *TableReader) identifier(account, table string) string {
	if schema := r.schemas[account]; schema != "" {
		return pgx.Identifier{schema, table}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func contentQuery(identifier string, columns []string) string {
	order := make([]string, len(columns))
	for i, col := range columns {
		order[i] = pgx.Identifier{col}.Sanitize()
	}
	if len(order) == 0 {
		order = []string{"1"}
	}
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT @limit OFFSET @offset",
		identifier, strings.Join(order, ", "))
}
