package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

func writeConfig(t *testing.T, content string) *ConfigStore {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestOpenConfigFile_CreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "almanac.toml")

	store, err := OpenConfigFile(path)

	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetPersists(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("github.login", "octocat"))
	require.NoError(t, store.Set("enrichment_concurrency", 8))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "octocat", reopened.GetString("github.login"))
	assert.Equal(t, 8, reopened.GetInt("enrichment_concurrency"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_NestedTablesFlatten(t *testing.T) {
	store := writeConfig(t, `
verbose = true
integrations = ["github_stars", "browser-history"]

[github]
token = "ghp_x"
login = "octocat"
`)

	assert.True(t, store.GetBool("verbose"))
	assert.Equal(t, "ghp_x", store.GetString("github.token"))
	assert.Equal(t, []string{"github_stars", "browser-history"}, store.GetStringSlice("integrations"))

	_, ok := store.Get("github")
	assert.False(t, ok)
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := writeConfig(t, `
as_string = "90s"
as_seconds = 120
bad_string = "soon"
bad_type = true
`)

	tests := []struct {
		key     string
		want    time.Duration
		wantErr bool
	}{
		{"as_string", 90 * time.Second, false},
		{"as_seconds", 2 * time.Minute, false},
		{"missing", time.Hour, false},
		{"bad_string", 0, true},
		{"bad_type", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := store.GetDuration(tt.key, time.Hour)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigStore_Settings_Defaults(t *testing.T) {
	store := writeConfig(t, "")

	settings, err := store.Settings()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultOrphanTimeout, settings.OrphanTimeout)
	assert.Equal(t, domain.DefaultPageDelay, settings.PageDelay)
	assert.Equal(t, domain.DefaultRateLimitFallback, settings.RateLimitFallback)
	assert.Equal(t, domain.DefaultEnrichmentConcurrency, settings.EnrichmentConcurrency)
	assert.Equal(t, domain.BrowserChrome, settings.Browser.Kind)
	assert.NotEmpty(t, settings.Browser.Hostname)
	assert.Empty(t, settings.Integrations)
	assert.False(t, settings.GitHub.Configured())
}

func TestConfigStore_Settings_FromFile(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvGoogleClientID, "")
	t.Setenv(EnvGoogleClientSecret, "")
	t.Setenv(EnvGoogleRefreshToken, "")

	store := writeConfig(t, `
data_dir = "/var/lib/almanac"
sweep_on_start = true
orphan_timeout = "2h"
page_delay = "250ms"
rate_limit_fallback = 30
enrichment_concurrency = 2
schedule_interval = "15m"
integrations = ["github_commits", "google-drive"]

[github]
token = "file-token"
login = "octocat"

[google]
client_id = "id"
client_secret = "secret"
refresh_token = "refresh"
folder_id = "folder"

[browser]
kind = "safari"
history_path = "/Users/me/Library/Safari/History.db"
hostname = "laptop"
`)

	settings, err := store.Settings()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/almanac", settings.DataDir)
	assert.True(t, settings.SweepOnStart)
	assert.Equal(t, 2*time.Hour, settings.OrphanTimeout)
	assert.Equal(t, 250*time.Millisecond, settings.PageDelay)
	assert.Equal(t, 30*time.Second, settings.RateLimitFallback)
	assert.Equal(t, 2, settings.EnrichmentConcurrency)
	assert.Equal(t, 15*time.Minute, settings.ScheduleInterval)
	assert.Equal(t, []domain.IntegrationType{domain.IntegrationGitHubCommits, domain.IntegrationGoogleDrive},
		settings.Integrations)
	assert.Equal(t, domain.GitHubSettings{Token: "file-token", Login: "octocat"}, settings.GitHub)
	assert.Equal(t, "folder", settings.Google.FolderID)
	assert.True(t, settings.Google.Configured())
	assert.Equal(t, domain.BrowserSafari, settings.Browser.Kind)
	assert.Equal(t, "laptop", settings.Browser.Hostname)
	assert.True(t, settings.Configured(domain.IntegrationBrowserHistory))
}

func TestConfigStore_Settings_EnvOverrides(t *testing.T) {
	t.Setenv(EnvGitHubToken, "env-token")
	t.Setenv(EnvGoogleRefreshToken, "env-refresh")

	store := writeConfig(t, `
[github]
token = "file-token"

[google]
refresh_token = "file-refresh"
`)

	settings, err := store.Settings()
	require.NoError(t, err)
	assert.Equal(t, "env-token", settings.GitHub.Token)
	assert.Equal(t, "env-refresh", settings.Google.RefreshToken)
}

func TestConfigStore_Settings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown integration", `integrations = ["github_issues"]`, domain.ErrUnsupportedType},
		{"bad duration", `page_delay = "fast"`, domain.ErrInvalidInput},
		{"zero concurrency", `enrichment_concurrency = 0`, domain.ErrInvalidInput},
		{"unknown browser", "[browser]\nkind = \"lynx\"", domain.ErrInvalidInput},
		{"negative timeout", `orphan_timeout = "-1h"`, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := writeConfig(t, tt.content)
			_, err := store.Settings()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
