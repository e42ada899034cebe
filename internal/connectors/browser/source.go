package browser

import (
	"context"
	"errors"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// ErrMissingHistoryPath is returned when no snapshot path is configured.
var ErrMissingHistoryPath = errors.New("browser: history_path is required")

// ErrMissingHostname is returned when visits cannot be scoped to a machine.
var ErrMissingHostname = errors.New("browser: hostname is required")

// Config holds the browser history source settings.
type Config struct {
	Kind        domain.BrowserKind
	HistoryPath string
	Hostname    string
}

// ConfigFromSettings extracts the source config from resolved settings.
func ConfigFromSettings(s domain.BrowserSettings) Config {
	return Config{Kind: s.Kind, HistoryPath: s.HistoryPath, Hostname: s.Hostname}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.HistoryPath == "" {
		return ErrMissingHistoryPath
	}
	if c.Hostname == "" {
		return ErrMissingHostname
	}
	_, err := dialectFor(c.Kind)
	return err
}

// Source syncs a browser history snapshot into visit episodes.
type Source struct {
	store  driven.CanonicalStore
	cursor *services.CursorStrategy
	cfg    Config
}

var _ driven.Source = (*Source)(nil)

// New creates the browser_history source.
func New(store driven.CanonicalStore, cfg Config) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		store:  store,
		cursor: services.NewCursorStrategy(store),
		cfg:    cfg,
	}, nil
}

// Integration returns browser_history.
func (s *Source) Integration() domain.IntegrationType {
	return domain.IntegrationBrowserHistory
}

// Sync reads visits newer than this host's boundary, collapses them into
// episodes and inserts the episodes not yet stored.
func (s *Source) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	d, err := dialectFor(s.cfg.Kind)
	if err != nil {
		return 0, err
	}

	scope := domain.Scope{Integration: s.Integration(), Instance: s.cfg.Hostname}
	boundary, err := s.cursor.Boundary(ctx, scope, req.RunType)
	if err != nil {
		return 0, err
	}

	snap, err := openSnapshot(s.cfg.HistoryPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := snap.Close(); err != nil {
			logger.Warn("browser_history: removing snapshot copy: %v", err)
		}
	}()

	if err := d.checkTables(ctx, snap.db); err != nil {
		return 0, err
	}
	raw, err := d.readVisits(ctx, snap.db, boundary)
	if err != nil {
		return 0, err
	}

	episodes := services.CollapseVisits(raw)
	logger.Info("browser_history: %d visits after %s collapsed into %d episodes", len(raw), boundary, len(episodes))

	created := 0
	for i := range episodes {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		ep := &episodes[i]
		ep.Hostname = s.cfg.Hostname
		ep.RunID = req.RunID

		outcome, err := services.Merge(ctx, s.store.Visits(), services.VisitKind, ep)
		if err != nil {
			logger.Warn("browser_history: skipping visit %s: %v", ep.Key(), err)
			continue
		}
		if outcome == services.OutcomeCreated {
			created++
		}
	}
	return created, nil
}
