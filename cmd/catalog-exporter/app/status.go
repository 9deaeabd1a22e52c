package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/internal/status"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recorded export runs of every account",
		Long: `Show the last recorded export run of every account and run type.

Examples:
  catalog-exporter status --config config.yaml
  catalog-exporter status --config config.yaml --format json`,
		RunE: runStatus,
	}

	addConfigFlag(cmd, false)
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown output format %q (expected table or json)", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list export runs: %w", err)
	}
	return renderStatus(cmd.OutOrStdout(), records, format)
}

func renderStatus(w io.Writer, records []status.Record, format string) error {
	if format == formatJSON {
		if records == nil {
			records = []status.Record{}
		}
		output, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format export runs: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No export runs recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Account", "Type", "Status", "Export date", "Updated")
	for _, r := range records {
		row := []string{
			r.Account,
			string(r.Type),
			string(r.Status),
			r.ExportDate.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render export runs: %w", err)
		}
	}
	return table.Render()
}
