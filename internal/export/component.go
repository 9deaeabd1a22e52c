package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ComponentResult summarizes the export of one component
type ComponentResult struct {
	Entity string

	// Skipped is set for delta runs of components without a delta source
	Skipped bool

	Primary   *FileResult
	Relations []*FileResult
}

// Rows returns the number of rows written across all files of the component
func (r *ComponentResult) Rows() int {
	total := 0
	if r.Primary != nil {
		total += r.Primary.Rows
	}
	for _, rel := range r.Relations {
		if rel != nil {
			total += rel.Rows
		}
	}
	return total
}

// ExportComponent exports the primary file of a component followed by each of
// its relation files, strictly in order.
//
// On delta runs, and on full runs of components that scope their relations, the
// ids of the exported primary rows restrict every relation query. A failed
// primary export aborts the component; a failed relation does not stop the
// remaining relations, and all relation errors are returned joined.
func (e *Exporter) ExportComponent(ctx context.Context, c *Component, scope Scope) (*ComponentResult, error) {
	result := &ComponentResult{Entity: c.Entity}

	source := c.Primary
	if scope.IsDelta() {
		if c.Delta == nil {
			slog.Info("Component has no delta query, skipping",
				"account", scope.Account,
				"entity", c.Entity)
			result.Skipped = true
			return result, nil
		}
		source = c.Delta
	}

	primary := FileSpec{
		FileName: c.MainFile,
		Source:   source,
		Scope:    scope,
		Register: func(path string, columns []string) error {
			return e.registrar.RegisterEntityFile(path, c.Entity, c.IDField, columns)
		},
	}
	if scope.IsDelta() || c.ScopeRelations {
		primary.CollectColumn = c.IDField
	}

	var err error
	result.Primary, err = e.ExportFile(ctx, primary)
	if err != nil {
		return result, fmt.Errorf("entity %s: %w", c.Entity, err)
	}

	ids := result.Primary.IDs

	var errs []error
	for i := range c.Relations {
		rel := &c.Relations[i]
		relResult, err := e.ExportFile(ctx, FileSpec{
			FileName:      rel.File,
			Source:        rel.Source,
			Scope:         scope,
			IDs:           ids,
			HeaderColumns: rel.HeaderColumns,
			Resolve:       rel.Resolve,
			Register: func(path string, _ []string) error {
				return e.registrar.RegisterRelationFile(path, rel.IDField, rel.ValueColumns, rel.Params)
			},
		})
		result.Relations = append(result.Relations, relResult)
		if err != nil {
			slog.Error("Relation export failed",
				"account", scope.Account,
				"entity", c.Entity,
				"relation", rel.Name,
				"error", err)
			errs = append(errs, fmt.Errorf("relation %s of %s: %w", rel.Name, c.Entity, err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	return result, errors.Join(errs...)
}
