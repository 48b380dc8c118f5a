package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

const sampleConfig = `
data_dir = "/var/lib/docsync"

[api]
base_url = "https://flowise.example.com/api/v1"
api_key = "file-key"

[sync]
store_name = "Inbox Documents"
loader_id = "loader-1"
chatflow_id = "chatflow-1"
poll_interval_seconds = 5
workers = 2

[translation]
enabled = true
base_url = "https://translate.example.com"
target_language = "en"

[[sources]]
id = "inbox"
type = "filesystem"
path = "/srv/inbox"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/docsync", cfg.DataDir)
	assert.Equal(t, "https://flowise.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "Inbox Documents", cfg.Sync.StoreName)
	assert.Equal(t, 2, cfg.Sync.Workers)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, domain.DefaultSyncSettings().MaxIndexAttempts, cfg.Sync.MaxIndexAttempts)
	assert.Equal(t, 15, cfg.Scheduler.IntervalMinutes)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	settings := domain.DefaultSyncSettings()
	assert.Equal(t, settings.Workers, cfg.Sync.Workers)
	assert.Equal(t, settings.TargetLanguage, cfg.Translation.TargetLanguage)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "not [valid toml"))

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config.toml", cfgErr.Field)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.APIKey)
}

func TestValidateAcceptsSampleConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresBaseURL(t *testing.T) {
	cfg := Default()

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "api.base_url", cfgErr.Field)
}

func TestValidateRequiresSources(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://flowise.example.com"

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "sources", cfgErr.Field)
}

func TestValidateRejectsDuplicateSourceIDs(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.Sources = append(cfg.Sources, SourceConfig{ID: "inbox", Type: SourceFilesystem, Path: "/tmp"})

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Contains(t, cfgErr.Reason, "duplicate")
}

func TestValidateRejectsUnknownSourceType(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.Sources[0].Type = "ftp"

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Contains(t, cfgErr.Reason, "unknown source type")
}

func TestValidateRequiresGoogleAccessToken(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.Sources[0] = SourceConfig{ID: "mail", Type: SourceGmail}

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Contains(t, cfgErr.Field, "access_token")
}

func TestSyncSettingsConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	settings := cfg.SyncSettings()
	assert.Equal(t, "Inbox Documents", settings.StoreName)
	assert.Equal(t, 5*time.Second, settings.PollInterval)
	assert.Equal(t, 2, settings.Workers)
	assert.True(t, settings.TranslationEnabled)
	assert.Equal(t, "en", settings.TargetLanguage)
}
