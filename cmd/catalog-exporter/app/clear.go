package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/catalog-exporter/internal/status"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the recorded export runs of an account",
		Long: `Delete the recorded export runs of an account.

Use this to release an account stuck in PROCESSING after a crash, or to force
the next scheduled run to be a FULL export. Without --type both run types are
cleared.`,
		RunE: runClear,
	}

	addConfigFlag(cmd, false)
	cmd.Flags().String("account", "", "Account to clear (required)")
	cmd.Flags().String("type", "", "Run type to clear (full or delta, default both)")
	cmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	if err := cmd.MarkFlagRequired("account"); err != nil {
		panic(err)
	}
	return cmd
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	account, err := cmd.Flags().GetString("account")
	if err != nil {
		return fmt.Errorf("failed to get account flag: %w", err)
	}
	typeFlag, err := cmd.Flags().GetString("type")
	if err != nil {
		return fmt.Errorf("failed to get type flag: %w", err)
	}

	var typ *status.ExportType
	what := "all export runs"
	if typeFlag != "" {
		parsed, err := status.ParseExportType(typeFlag)
		if err != nil {
			return err
		}
		typ = &parsed
		what = fmt.Sprintf("%s export runs", parsed)
	}

	ok, err := confirm(cmd, fmt.Sprintf("This will delete %s recorded for %s.", what, account))
	if err != nil {
		return err
	}
	if !ok {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "Clear cancelled")
		return err
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

	if err := store.Clear(ctx, account, typ); err != nil {
		return fmt.Errorf("failed to clear export runs: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s of %s\n", what, account)
	return err
}
