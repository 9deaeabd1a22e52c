// Package status defines the export run types and lifecycle phases shared by the
// lease store, the scheduler and the run orchestrator.
package status

import (
	"fmt"
	"strings"
	"time"
)

// ExportType is the kind of export run
type ExportType string

const (
	// ExportTypeFull is a complete re-export of an account's catalog
	ExportTypeFull ExportType = "FULL"

	// ExportTypeDelta is an incremental export of recently changed entities
	ExportTypeDelta ExportType = "DELTA"
)

// ExportStatus is the last recorded outcome of an export run
type ExportStatus string

const (
	// ExportStatusProcessing means a run has started and not yet recorded an outcome
	ExportStatusProcessing ExportStatus = "PROCESSING"

	// ExportStatusSuccess means the run completed successfully
	ExportStatusSuccess ExportStatus = "SUCCESS"

	// ExportStatusFail means the run completed with a fatal error
	ExportStatusFail ExportStatus = "FAIL"
)

// ParseExportType parses a run type as given on the command line or in configuration.
// Matching is case-insensitive.
func ParseExportType(s string) (ExportType, error) {
	switch ExportType(strings.ToUpper(strings.TrimSpace(s))) {
	case ExportTypeFull:
		return ExportTypeFull, nil
	case ExportTypeDelta:
		return ExportTypeDelta, nil
	default:
		return "", fmt.Errorf("unknown export type %q (expected full or delta)", s)
	}
}

// IsTerminal reports whether the status is a final outcome of a run
func (s ExportStatus) IsTerminal() bool {
	return s == ExportStatusSuccess || s == ExportStatusFail
}

// Record is one row of the export table: the last recorded transition of an
// account's run of a given type.
type Record struct {
	Account    string       `json:"account" yaml:"account"`
	Type       ExportType   `json:"type" yaml:"type"`
	ExportDate time.Time    `json:"exportDate" yaml:"exportDate"`
	Status     ExportStatus `json:"status" yaml:"status"`
	UpdatedAt  time.Time    `json:"updatedAt" yaml:"updatedAt"`
}

// Process is a run of another account currently recorded as PROCESSING
type Process struct {
	Account    string
	Type       ExportType
	ExportDate time.Time
}
