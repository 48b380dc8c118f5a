// Package cli wires the docsync commands. Services are held in package
// variables so tests can substitute them; production wiring happens once
// in ensureApp.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync-cli/internal/adapters/driven/docstore/flowise"
	"github.com/custodia-labs/docsync-cli/internal/adapters/driven/language/libretranslate"
	"github.com/custodia-labs/docsync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsync-cli/internal/config"
	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsync-cli/internal/core/services"
	"github.com/custodia-labs/docsync-cli/internal/extractors"
	"github.com/custodia-labs/docsync-cli/internal/extractors/docx"
	"github.com/custodia-labs/docsync-cli/internal/extractors/image"
	"github.com/custodia-labs/docsync-cli/internal/extractors/ocr"
	"github.com/custodia-labs/docsync-cli/internal/extractors/pdf"
	"github.com/custodia-labs/docsync-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/docsync-cli/internal/extractors/rtf"
	"github.com/custodia-labs/docsync-cli/internal/logger"
	"github.com/custodia-labs/docsync-cli/internal/watchers/filesystem"
	"github.com/custodia-labs/docsync-cli/internal/watchers/google"
	gdrive "github.com/custodia-labs/docsync-cli/internal/watchers/google/drive"
	ggmail "github.com/custodia-labs/docsync-cli/internal/watchers/google/gmail"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected services. Tests substitute these; ensureApp populates them from
// configuration.
var (
	loadedConfig *config.Config
	syncRunner   driving.SyncRunner
	storeClient  driven.StoreClient
	appStore     *sqlite.Store
	watchers     []driven.SourceWatcher
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Synchronise documents into a remote document store",
	Long: `docsync discovers documents from configured sources (local
directories, Google Drive, Gmail attachments), extracts their text,
optionally translates it, and uploads it to a remote document store.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.docsync/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

// ensureApp wires the full application from configuration. Idempotent;
// tests that pre-populate the service variables bypass it entirely.
func ensureApp(ctx context.Context) error {
	if syncRunner != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	loadedConfig = cfg

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	appStore = store

	client, err := flowise.NewClient(flowise.Config{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.APIKey,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	if err != nil {
		return err
	}
	storeClient = client

	language, err := buildLanguageService(cfg)
	if err != nil {
		return err
	}

	registry := buildExtractorRegistry(cfg)
	settings := cfg.SyncSettings()

	runners := make([]driving.SyncRunner, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		watcher, err := buildWatcher(ctx, src)
		if err != nil {
			return err
		}
		watchers = append(watchers, watcher)
		runners = append(runners, services.NewSyncOrchestrator(
			watcher, registry, language, client, store.JobStore(), settings))
	}

	if len(runners) == 1 {
		syncRunner = runners[0]
	} else {
		syncRunner = services.NewMultiRunner(runners...)
	}
	return nil
}

// closeApp releases watcher and storage resources.
func closeApp() {
	for _, w := range watchers {
		if err := w.Close(); err != nil {
			logger.Warn("Failed to close watcher %s: %v", w.SourceID(), err)
		}
	}
	watchers = nil
	if appStore != nil {
		if err := appStore.Close(); err != nil {
			logger.Warn("Failed to close storage: %v", err)
		}
		appStore = nil
	}
}

// buildLanguageService creates the translation adapter, or nil when
// translation is disabled.
func buildLanguageService(cfg *config.Config) (driven.LanguageService, error) {
	if !cfg.Translation.Enabled || cfg.Translation.BaseURL == "" {
		return nil, nil
	}
	return libretranslate.NewClient(libretranslate.Config{
		BaseURL: cfg.Translation.BaseURL,
		APIKey:  cfg.Translation.APIKey,
	})
}

// buildExtractorRegistry registers one extractor per supported format.
func buildExtractorRegistry(cfg *config.Config) *extractors.Registry {
	toolchain := ocr.NewClient(ocr.Config{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.Language,
		DPI:       cfg.OCR.DPI,
		MaxPages:  cfg.OCR.MaxPages,
	})

	registry := extractors.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(docx.New())
	registry.Register(rtf.New())
	registry.Register(pdf.New(toolchain, cfg.Sync.MinNativeTextLen))
	registry.Register(image.New(toolchain))
	return registry
}

// buildWatcher creates the watcher for one source entry.
func buildWatcher(ctx context.Context, src config.SourceConfig) (driven.SourceWatcher, error) {
	switch src.Type {
	case config.SourceFilesystem:
		return filesystem.New(src.ID, src.Path)
	case config.SourceDrive:
		svc, err := google.NewDriveService(ctx, google.StaticTokenSource(src.AccessToken))
		if err != nil {
			return nil, fmt.Errorf("create drive service: %w", err)
		}
		return gdrive.New(svc, src.ID, src.FolderID), nil
	case config.SourceGmail:
		svc, err := google.NewGmailService(ctx, google.StaticTokenSource(src.AccessToken))
		if err != nil {
			return nil, fmt.Errorf("create gmail service: %w", err)
		}
		return ggmail.New(svc, src.ID, src.Query), nil
	default:
		return nil, &domain.ConfigurationError{Field: "sources", Reason: fmt.Sprintf("unknown source type %q", src.Type)}
	}
}

// schedulerConfig converts the file scheduler settings to the domain form.
func schedulerConfig(cfg *config.Config) domain.SchedulerConfig {
	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return domain.SchedulerConfig{
		Enabled: cfg.Scheduler.Enabled,
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDDocumentSync: {
				Enabled:  cfg.Scheduler.Enabled,
				Interval: interval,
			},
		},
	}
}
