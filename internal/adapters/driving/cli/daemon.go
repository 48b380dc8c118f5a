package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync-cli/internal/core/services"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the synchronisation scheduler",
	Long: `Starts the scheduler loop: synchronisation runs on the configured
interval until the process receives SIGINT or SIGTERM. A failed run is
logged and the next tick proceeds.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureApp(ctx); err != nil {
		return err
	}
	if syncRunner == nil || appStore == nil {
		return errors.New("sync service not configured")
	}

	scheduler := services.NewScheduler(schedulerConfig(loadedConfig), appStore.SchedulerStore(), syncRunner)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		logger.Info("Received %s, shutting down", sig)
		if err := scheduler.Stop(); err != nil {
			logger.Warn("Scheduler stop: %v", err)
		}
	}()

	cmd.Println("Scheduler started. Press Ctrl+C to stop.")
	return scheduler.Start(ctx)
}
