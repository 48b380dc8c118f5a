package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage the remote document store",
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the remote store status",
	RunE:  runStoreStatus,
}

var storeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the remote store status to EMPTY",
	Long: `Marks the configured store as EMPTY so the next sync re-uploads
everything. Remote content is not touched; only the status changes.`,
	RunE: runStoreReset,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the remote store",
	Long: `Deletes the configured remote store and all its content. The store
is never deleted automatically; this command is the only path.`,
	RunE: runStoreDelete,
}

var deleteConfirmed bool

func init() {
	storeDeleteCmd.Flags().BoolVar(&deleteConfirmed, "yes", false, "confirm deletion without prompting")
	storeCmd.AddCommand(storeStatusCmd, storeResetCmd, storeDeleteCmd)
	rootCmd.AddCommand(storeCmd)
}

// resolveStoreID finds the configured store by id or name. Unlike a sync
// run, a missing store is reported, never created.
func resolveStoreID(ctx context.Context) (string, error) {
	if storeClient == nil {
		return "", errors.New("store service not configured")
	}

	settings := loadedConfig.SyncSettings()
	if settings.StoreID != "" {
		return settings.StoreID, nil
	}
	if settings.StoreName == "" {
		return "", &domain.ConfigurationError{Field: "store", Reason: "store id or name required"}
	}

	stores, err := storeClient.ListStores(ctx)
	if err != nil {
		return "", fmt.Errorf("list stores: %w", err)
	}
	for _, store := range stores {
		if store.Name == settings.StoreName {
			return store.ID, nil
		}
	}
	return "", fmt.Errorf("store %q: %w", settings.StoreName, domain.ErrNotFound)
}

func runStoreStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureApp(ctx); err != nil {
		return err
	}

	storeID, err := resolveStoreID(ctx)
	if err != nil {
		return err
	}

	store, err := storeClient.GetStore(ctx, storeID)
	if err != nil {
		return fmt.Errorf("get store: %w", err)
	}

	cmd.Printf("Store:       %s\n", store.Name)
	cmd.Printf("ID:          %s\n", store.ID)
	cmd.Printf("Status:      %s\n", store.Status)
	cmd.Printf("Ready:       %t\n", store.Status.Ready())
	return nil
}

func runStoreReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureApp(ctx); err != nil {
		return err
	}

	storeID, err := resolveStoreID(ctx)
	if err != nil {
		return err
	}

	store, err := storeClient.UpdateStore(ctx, storeID, domain.StoreStatusEmpty)
	if err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	cmd.Printf("Store %s reset to %s.\n", store.ID, store.Status)
	return nil
}

func runStoreDelete(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureApp(ctx); err != nil {
		return err
	}

	if !deleteConfirmed {
		return errors.New("refusing to delete without --yes")
	}

	storeID, err := resolveStoreID(ctx)
	if err != nil {
		return err
	}

	if err := storeClient.DeleteStore(ctx, storeID); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	cmd.Printf("Store %s deleted.\n", storeID)
	return nil
}
