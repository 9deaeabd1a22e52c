package export

import (
	"context"
	"fmt"
	"log/slog"
)

// TableResult is the outcome of exporting one auxiliary table
type TableResult struct {
	Table    string
	FileName string
	Path     string
	Columns  []string
	Rows     int

	// Err is set when the table was skipped or only partially written
	Err error
}

// AuxiliaryFileName returns the output file name of an auxiliary table
func AuxiliaryFileName(table string) string {
	return "extra_" + table + ".csv"
}

// ExportAuxiliaryTables exports the side tables configured for an entity. Every
// table yields a TableResult; failures are logged and never abort the loop.
func (e *Exporter) ExportAuxiliaryTables(
	ctx context.Context,
	reader TableReader,
	account, entity string,
	tables []string,
) []TableResult {
	results := make([]TableResult, 0, len(tables))
	for _, table := range tables {
		res := e.exportAuxiliaryTable(ctx, reader, account, entity, table)
		if res.Err != nil {
			slog.Warn("Skipping auxiliary table",
				"account", account,
				"entity", entity,
				"table", table,
				"error", res.Err)
		} else {
			slog.Info("Exported auxiliary table",
				"account", account,
				"entity", entity,
				"table", table,
				"rows", res.Rows)
		}
		results = append(results, res)
	}
	return results
}

func (e *Exporter) exportAuxiliaryTable(
	ctx context.Context,
	reader TableReader,
	account, entity, table string,
) TableResult {
	res := TableResult{
		Table:    table,
		FileName: AuxiliaryFileName(table),
	}
	res.Path = e.sink.Path(res.FileName)

	columns, err := reader.Columns(ctx, account, table)
	if err != nil {
		res.Err = fmt.Errorf("failed to read columns of %s: %w", table, err)
		return res
	}
	if len(columns) == 0 {
		res.Err = fmt.Errorf("%s: %w", table, ErrTableNotFound)
		return res
	}
	res.Columns = columns

	for offset := 0; offset+e.step <= e.limit; offset += e.step {
		rows, err := reader.Content(ctx, account, table, columns, offset, e.step)
		if err != nil {
			res.Err = fmt.Errorf("failed to read content of %s: %w", table, err)
			return res
		}
		if len(rows) == 0 {
			break
		}

		batch := rows
		if offset == 0 {
			batch = append([][]string{columns}, rows...)
		}
		for _, segment := range chunk(batch, e.dataSaveStep) {
			if err := e.sink.Append(res.FileName, segment); err != nil {
				res.Err = fmt.Errorf("failed to write %s: %w", res.FileName, err)
				return res
			}
		}

		res.Rows += len(rows)
		if len(rows) < e.step {
			break
		}
	}

	if res.Rows == 0 {
		res.Err = fmt.Errorf("%s: %w", table, ErrEmptyTable)
		return res
	}

	if err := e.registrar.RegisterAuxiliaryTable(res.Path, entity, columns[0], columns); err != nil {
		res.Err = fmt.Errorf("failed to register %s: %w", res.FileName, err)
	}
	return res
}
