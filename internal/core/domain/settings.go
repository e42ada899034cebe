package domain

import (
	"fmt"
	"time"
)

// BrowserKind selects the history schema of a browser snapshot.
type BrowserKind string

const (
	// BrowserChrome reads the Chromium History database (WebKit epoch).
	BrowserChrome BrowserKind = "chrome"

	// BrowserSafari reads the Safari History.db database (Cocoa epoch).
	BrowserSafari BrowserKind = "safari"
)

// IsValid returns true if the browser kind is recognised.
func (k BrowserKind) IsValid() bool {
	switch k {
	case BrowserChrome, BrowserSafari:
		return true
	default:
		return false
	}
}

// Default engine settings.
const (
	DefaultOrphanTimeout         = 6 * time.Hour
	DefaultPageDelay             = time.Second
	DefaultRateLimitFallback     = 60 * time.Second
	DefaultEnrichmentConcurrency = 4
	DefaultScheduleInterval      = time.Hour
	DefaultPageSize              = 100
)

// Settings is the resolved application configuration.
type Settings struct {
	// DataDir holds the canonical store. Defaults to ~/.almanac.
	DataDir string

	// Verbose enables debug logging.
	Verbose bool

	// LogFile, when set, receives log output with size-based rotation.
	LogFile string

	// SweepOnStart fails orphaned runs before each command.
	SweepOnStart bool

	// OrphanTimeout is the age after which an in_progress run counts as orphaned.
	OrphanTimeout time.Duration

	// PageDelay is the minimum spacing between page fetches.
	PageDelay time.Duration

	// RateLimitFallback is the back-off used when a source gives no retry hint.
	RateLimitFallback time.Duration

	// EnrichmentConcurrency bounds parallel enrichment calls.
	EnrichmentConcurrency int

	// ScheduleInterval is the period of the scheduler.
	ScheduleInterval time.Duration

	// Integrations lists what the scheduler runs. Empty means all configured ones.
	Integrations []IntegrationType

	GitHub  GitHubSettings
	Google  GoogleSettings
	Browser BrowserSettings
}

// GitHubSettings configures the GitHub sources.
type GitHubSettings struct {
	Token string
	Login string
}

// Configured reports whether GitHub sources can run.
func (g GitHubSettings) Configured() bool {
	return g.Token != "" && g.Login != ""
}

// GoogleSettings configures the Drive source.
type GoogleSettings struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	// FolderID optionally limits the sync to direct children of one folder.
	FolderID string
}

// Configured reports whether the Drive source can run.
func (g GoogleSettings) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

// BrowserSettings configures the browser history source.
type BrowserSettings struct {
	Kind        BrowserKind
	HistoryPath string

	// Hostname scopes stored visits. Defaults to the machine hostname.
	Hostname string
}

// Configured reports whether the browser history source can run.
func (b BrowserSettings) Configured() bool {
	return b.HistoryPath != ""
}

// DefaultSettings returns settings with engine defaults applied.
func DefaultSettings() Settings {
	return Settings{
		OrphanTimeout:         DefaultOrphanTimeout,
		PageDelay:             DefaultPageDelay,
		RateLimitFallback:     DefaultRateLimitFallback,
		EnrichmentConcurrency: DefaultEnrichmentConcurrency,
		ScheduleInterval:      DefaultScheduleInterval,
		Browser:               BrowserSettings{Kind: BrowserChrome},
	}
}

// Validate checks the settings for values the engine cannot run with.
func (s Settings) Validate() error {
	if s.OrphanTimeout <= 0 {
		return fmt.Errorf("%w: orphan_timeout must be positive", ErrInvalidInput)
	}
	if s.PageDelay < 0 {
		return fmt.Errorf("%w: page_delay must not be negative", ErrInvalidInput)
	}
	if s.RateLimitFallback <= 0 {
		return fmt.Errorf("%w: rate_limit_fallback must be positive", ErrInvalidInput)
	}
	if s.EnrichmentConcurrency < 1 {
		return fmt.Errorf("%w: enrichment_concurrency must be at least 1", ErrInvalidInput)
	}
	if s.ScheduleInterval <= 0 {
		return fmt.Errorf("%w: schedule_interval must be positive", ErrInvalidInput)
	}
	if !s.Browser.Kind.IsValid() {
		return fmt.Errorf("%w: browser kind %q", ErrInvalidInput, s.Browser.Kind)
	}
	for _, it := range s.Integrations {
		if !it.IsValid() {
			return fmt.Errorf("%w: integration %q", ErrUnsupportedType, it)
		}
	}
	return nil
}

// Configured reports whether the credentials an integration needs are present.
func (s Settings) Configured(t IntegrationType) bool {
	switch t {
	case IntegrationGitHubCommits, IntegrationGitHubStars, IntegrationGitHubEnrichment:
		return s.GitHub.Configured()
	case IntegrationGoogleDrive:
		return s.Google.Configured()
	case IntegrationBrowserHistory:
		return s.Browser.Configured()
	default:
		return false
	}
}
