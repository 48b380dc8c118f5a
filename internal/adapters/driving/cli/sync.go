package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronisation cycle",
	Long: `Discovers new and changed documents from the configured sources,
extracts and uploads their text, and waits for remote indexing. Documents
already uploaded with an unchanged fingerprint are skipped.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureApp(ctx); err != nil {
		return err
	}
	if syncRunner == nil {
		return errors.New("sync service not configured")
	}

	cmd.Println("Starting sync...")

	report, err := syncRunner.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	done, skipped, failed := report.Counts()
	cmd.Printf("Sync complete: %d done, %d skipped, %d failed, %d deferred\n",
		done, skipped, failed, report.Deferred)

	for _, outcome := range report.Outcomes {
		if outcome.Reason != "" {
			cmd.Printf("  %s: %s at %s: %s\n", outcome.Name, outcome.State, outcome.Stage, outcome.Reason)
		}
	}
	return nil
}
