// Package app wires configuration, storage, sources and services together.
// It is the only package that knows every concrete adapter.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/almanac/internal/adapters/driven/config/file"
	"github.com/custodia-labs/almanac/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/almanac/internal/adapters/driving/oauth"
	"github.com/custodia-labs/almanac/internal/connectors/browser"
	"github.com/custodia-labs/almanac/internal/connectors/github"
	"github.com/custodia-labs/almanac/internal/connectors/google"
	"github.com/custodia-labs/almanac/internal/connectors/google/drive"
	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// Log rotation limits for log_file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
)

// Options are the command line inputs to bootstrap.
type Options struct {
	// ConfigPath is an explicit config file. Empty means ~/.almanac/config.toml.
	ConfigPath string

	// Verbose forces debug logging on regardless of the config file.
	Verbose bool
}

// App holds the wired application.
type App struct {
	Settings  domain.Settings
	Config    driven.ConfigStore
	Store     *sqlite.Store
	Runner    *services.Runner
	Scheduler *services.Scheduler

	closers []io.Closer
}

// New loads configuration, opens the canonical store and registers a source
// for every integration whose credentials are configured.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	settings.Verbose = settings.Verbose || opts.Verbose

	a := &App{Settings: settings, Config: cfg}

	logger.SetVerbose(settings.Verbose)
	if settings.LogFile != "" {
		a.closers = append(a.closers, logger.SetLogFile(settings.LogFile, logMaxSizeMB, logMaxBackups))
	}
	logger.Debug("Config loaded from %s", cfg.Path())

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("opening canonical store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store)
	logger.Debug("Canonical store at %s", store.Path())

	sources, err := buildSources(ctx, settings, store.CanonicalStore())
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Runner = services.NewRunner(store.RunStore(), services.NewSourceRegistry(sources...))
	a.Scheduler = services.NewScheduler(a.Runner, settings.Integrations, settings.ScheduleInterval)
	return a, nil
}

func openConfig(path string) (*file.ConfigStore, error) {
	if path != "" {
		return file.OpenConfigFile(path)
	}
	return file.NewConfigStore("")
}

// buildSources creates the sources the settings have credentials for.
func buildSources(ctx context.Context, settings domain.Settings, store driven.CanonicalStore) ([]driven.Source, error) {
	exec := services.NewFetchExecutor(settings.PageDelay, settings.RateLimitFallback)

	var sources []driven.Source

	if settings.GitHub.Configured() {
		cfg := github.ConfigFromSettings(settings)
		client := github.NewClient(ctx, cfg.Token)
		sources = append(sources,
			github.NewCommitsSource(client, store, exec, cfg),
			github.NewStarsSource(client, store, exec),
			github.NewEnrichmentSource(client, store, exec, cfg),
		)
	} else {
		logger.Debug("GitHub not configured, skipping github sources")
	}

	if settings.Google.Configured() {
		ts, err := google.NewTokenSource(ctx, google.Credentials{
			ClientID:     settings.Google.ClientID,
			ClientSecret: settings.Google.ClientSecret,
			RefreshToken: settings.Google.RefreshToken,
		}, google.Endpoint)
		if err != nil {
			return nil, err
		}
		svc, err := google.NewDriveService(ctx, ts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, drive.New(svc, store, exec, drive.Config{FolderID: settings.Google.FolderID}))
	} else {
		logger.Debug("Google not configured, skipping google_drive")
	}

	if settings.Browser.Configured() {
		source, err := browser.New(store, browser.ConfigFromSettings(settings.Browser))
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	} else {
		logger.Debug("Browser history not configured, skipping browser_history")
	}

	return sources, nil
}

// AuthorizeGoogle runs the Drive consent flow with the configured OAuth client
// and returns the granted refresh token.
func (a *App) AuthorizeGoogle(ctx context.Context, open func(url string) error) (string, error) {
	g := a.Settings.Google
	if g.ClientID == "" || g.ClientSecret == "" {
		return "", errors.New("google.client_id and google.client_secret must be set")
	}
	token, err := oauth.Authorize(ctx, google.OAuthConfig(g.ClientID, g.ClientSecret, google.Endpoint), open)
	if err != nil {
		return "", err
	}
	return token.RefreshToken, nil
}

// Close releases the store and log file. Safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.closers != nil && a.Settings.LogFile != "" {
		logger.SetOutput(os.Stderr)
	}
	a.closers = nil
	return errors.Join(errs...)
}
