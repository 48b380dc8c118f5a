// Package config loads the explicit configuration struct from the docsync
// config directory. Configuration is read once at startup; there is no
// ambient lookup at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// Env variable overrides. Secrets belong in the environment, not the
// config file.
const (
	EnvAPIKey         = "DOCSYNC_API_KEY"
	EnvAPIBaseURL     = "DOCSYNC_API_BASE_URL"
	EnvTranslationKey = "DOCSYNC_TRANSLATION_API_KEY"
)

// Source types accepted in [[sources]] blocks.
const (
	SourceFilesystem = "filesystem"
	SourceDrive      = "drive"
	SourceGmail      = "gmail"
)

// APIConfig configures the remote document store client.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// SyncConfig carries the orchestrator tunables. Durations are expressed in
// units a human edits comfortably.
type SyncConfig struct {
	StoreID             string `toml:"store_id"`
	StoreName           string `toml:"store_name"`
	StoreDescription    string `toml:"store_description"`
	LoaderID            string `toml:"loader_id"`
	ChatflowID          string `toml:"chatflow_id"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	MaxIndexAttempts    int    `toml:"max_index_attempts"`
	RetryAttempts       int    `toml:"retry_attempts"`
	RetryBackoffMillis  int    `toml:"retry_backoff_ms"`
	Workers             int    `toml:"workers"`
	RunTimeoutSeconds   int    `toml:"run_timeout_seconds"`
	MinNativeTextLen    int    `toml:"min_native_text_len"`
}

// TranslationConfig configures the language service adapter.
type TranslationConfig struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TargetLanguage string `toml:"target_language"`
}

// OCRConfig configures the external extraction binaries.
type OCRConfig struct {
	Pdftotext string `toml:"pdftotext"`
	Pdftoppm  string `toml:"pdftoppm"`
	Tesseract string `toml:"tesseract"`
	Language  string `toml:"language"`
	DPI       int    `toml:"dpi"`
	MaxPages  int    `toml:"max_pages"`
}

// SchedulerConfig configures the daemon tick loop.
type SchedulerConfig struct {
	IntervalMinutes int  `toml:"interval_minutes"`
	Enabled         bool `toml:"enabled"`
}

// SourceConfig describes one watched source. Type selects the watcher;
// the remaining fields apply per type.
type SourceConfig struct {
	ID   string `toml:"id"`
	Type string `toml:"type"`

	// Path is the watched directory (filesystem).
	Path string `toml:"path"`

	// FolderID restricts the listing to one folder (drive); empty means
	// the whole accessible drive.
	FolderID string `toml:"folder_id"`

	// Query narrows the mailbox search with Gmail operators (gmail).
	Query string `toml:"query"`

	// AccessToken authenticates Google sources.
	AccessToken string `toml:"access_token"`
}

// Config is the full docsync configuration.
type Config struct {
	DataDir     string            `toml:"data_dir"`
	API         APIConfig         `toml:"api"`
	Sync        SyncConfig        `toml:"sync"`
	Translation TranslationConfig `toml:"translation"`
	OCR         OCRConfig         `toml:"ocr"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Sources     []SourceConfig    `toml:"sources"`
}

// Default returns the configuration applied before the file and environment
// are consulted.
func Default() *Config {
	settings := domain.DefaultSyncSettings()
	return &Config{
		API: APIConfig{RequestsPerSecond: 10},
		Sync: SyncConfig{
			PollIntervalSeconds: int(settings.PollInterval.Seconds()),
			MaxIndexAttempts:    settings.MaxIndexAttempts,
			RetryAttempts:       settings.RetryAttempts,
			RetryBackoffMillis:  int(settings.RetryBackoff.Milliseconds()),
			Workers:             settings.Workers,
			RunTimeoutSeconds:   int(settings.RunTimeout.Seconds()),
			MinNativeTextLen:    settings.MinNativeTextLen,
		},
		Translation: TranslationConfig{
			Enabled:        settings.TranslationEnabled,
			TargetLanguage: settings.TargetLanguage,
		},
		Scheduler: SchedulerConfig{IntervalMinutes: 15, Enabled: true},
	}
}

// DefaultPath returns the default config file location,
// ~/.docsync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docsync", "config.toml"), nil
}

// Load reads configuration from the given path, falling back to defaults
// for a missing file, then applies environment overrides. A .env file in
// the working directory is honoured for local development.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, &domain.ConfigurationError{Field: "config.toml", Reason: err.Error()}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file for secrets and
// the API endpoint.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvTranslationKey); v != "" {
		cfg.Translation.APIKey = v
	}
}

// Validate checks everything a run cannot proceed without. Source entries
// are checked here so a bad config fails at startup, not mid-run.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return &domain.ConfigurationError{Field: "api.base_url", Reason: "base URL required"}
	}
	if len(c.Sources) == 0 {
		return &domain.ConfigurationError{Field: "sources", Reason: "at least one source required"}
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return &domain.ConfigurationError{
				Field:  fmt.Sprintf("sources[%d].id", i),
				Reason: "source id required",
			}
		}
		if seen[src.ID] {
			return &domain.ConfigurationError{
				Field:  fmt.Sprintf("sources[%d].id", i),
				Reason: fmt.Sprintf("duplicate source id %q", src.ID),
			}
		}
		seen[src.ID] = true

		switch src.Type {
		case SourceFilesystem:
			if src.Path == "" {
				return &domain.ConfigurationError{
					Field:  fmt.Sprintf("sources[%d].path", i),
					Reason: "path required for filesystem source",
				}
			}
		case SourceDrive, SourceGmail:
			if src.AccessToken == "" {
				return &domain.ConfigurationError{
					Field:  fmt.Sprintf("sources[%d].access_token", i),
					Reason: "access token required for google sources",
				}
			}
		default:
			return &domain.ConfigurationError{
				Field:  fmt.Sprintf("sources[%d].type", i),
				Reason: fmt.Sprintf("unknown source type %q", src.Type),
			}
		}
	}

	return c.SyncSettings().Validate()
}

// SyncSettings converts the file representation into the domain settings
// consumed by the orchestrator.
func (c *Config) SyncSettings() *domain.SyncSettings {
	return &domain.SyncSettings{
		StoreID:            c.Sync.StoreID,
		StoreName:          c.Sync.StoreName,
		StoreDescription:   c.Sync.StoreDescription,
		LoaderID:           c.Sync.LoaderID,
		ChatflowID:         c.Sync.ChatflowID,
		TargetLanguage:     c.Translation.TargetLanguage,
		TranslationEnabled: c.Translation.Enabled,
		PollInterval:       time.Duration(c.Sync.PollIntervalSeconds) * time.Second,
		MaxIndexAttempts:   c.Sync.MaxIndexAttempts,
		RetryAttempts:      c.Sync.RetryAttempts,
		RetryBackoff:       time.Duration(c.Sync.RetryBackoffMillis) * time.Millisecond,
		Workers:            c.Sync.Workers,
		RunTimeout:         time.Duration(c.Sync.RunTimeoutSeconds) * time.Second,
		MinNativeTextLen:   c.Sync.MinNativeTextLen,
	}
}
