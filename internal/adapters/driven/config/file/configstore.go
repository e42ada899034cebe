package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// Environment variables that override secrets from the config file.
const (
	EnvGitHubToken        = "ALMANAC_GITHUB_TOKEN"
	EnvGoogleClientID     = "ALMANAC_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "ALMANAC_GOOGLE_CLIENT_SECRET"
	EnvGoogleRefreshToken = "ALMANAC_GOOGLE_REFRESH_TOKEN"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in a TOML file within the almanac config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.almanac/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".almanac")
	}
	return OpenConfigFile(filepath.Join(configDir, "config.toml"))
}

// OpenConfigFile creates a config store backed by an explicit file path,
// as given by the --config flag.
func OpenConfigFile(path string) (*ConfigStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: path,
		data:     make(map[string]any),
	}

	// Load existing data if file exists
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}

	// TOML arrays are parsed as []any
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	// Flatten nested maps into dot-notation keys for easier access
	s.data = flattenMap(loaded, "")
	return nil
}

// FlattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			// Recursively flatten nested maps
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// GetDuration retrieves a duration value written as a Go duration string
// ("90s", "6h") or as an integer number of seconds.
// Returns def if the key doesn't exist.
func (s *ConfigStore) GetDuration(key string, def time.Duration) (time.Duration, error) {
	val, ok := s.Get(key)
	if !ok {
		return def, nil
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return d, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case int:
		return time.Duration(v) * time.Second, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a duration", domain.ErrInvalidInput, key)
	}
}

// Settings resolves the stored values into domain.Settings.
// Unset keys take engine defaults; secrets may be overridden from the environment.
func (s *ConfigStore) Settings() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.DataDir = s.GetString("data_dir")
	settings.Verbose = s.GetBool("verbose")
	settings.LogFile = s.GetString("log_file")
	settings.SweepOnStart = s.GetBool("sweep_on_start")

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"orphan_timeout", &settings.OrphanTimeout},
		{"page_delay", &settings.PageDelay},
		{"rate_limit_fallback", &settings.RateLimitFallback},
		{"schedule_interval", &settings.ScheduleInterval},
	}
	for _, d := range durations {
		v, err := s.GetDuration(d.key, *d.target)
		if err != nil {
			return domain.Settings{}, err
		}
		*d.target = v
	}

	if _, ok := s.Get("enrichment_concurrency"); ok {
		settings.EnrichmentConcurrency = s.GetInt("enrichment_concurrency")
	}

	for _, name := range s.GetStringSlice("integrations") {
		it, err := domain.ParseIntegrationType(name)
		if err != nil {
			return domain.Settings{}, err
		}
		settings.Integrations = append(settings.Integrations, it)
	}

	settings.GitHub = domain.GitHubSettings{
		Token: envOr(EnvGitHubToken, s.GetString("github.token")),
		Login: s.GetString("github.login"),
	}
	settings.Google = domain.GoogleSettings{
		ClientID:     envOr(EnvGoogleClientID, s.GetString("google.client_id")),
		ClientSecret: envOr(EnvGoogleClientSecret, s.GetString("google.client_secret")),
		RefreshToken: envOr(EnvGoogleRefreshToken, s.GetString("google.refresh_token")),
		FolderID:     s.GetString("google.folder_id"),
	}

	if kind := s.GetString("browser.kind"); kind != "" {
		settings.Browser.Kind = domain.BrowserKind(kind)
	}
	settings.Browser.HistoryPath = s.GetString("browser.history_path")
	settings.Browser.Hostname = s.GetString("browser.hostname")
	if settings.Browser.Hostname == "" {
		if host, err := os.Hostname(); err == nil {
			settings.Browser.Hostname = host
		}
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid configuration in %s: %w", s.filePath, err)
	}
	return settings, nil
}

// envOr returns the environment variable when set, otherwise fallback.
func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}
