package github

import (
	"context"
	"errors"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// engine bundles what every GitHub source needs to fetch and merge.
type engine struct {
	client   *Client
	store    driven.CanonicalStore
	exec     *services.FetchExecutor
	cursor   *services.CursorStrategy
	resolver *services.DependencyResolver
}

func newEngine(client *Client, store driven.CanonicalStore, exec *services.FetchExecutor) engine {
	return engine{
		client:   client,
		store:    store,
		exec:     exec,
		cursor:   services.NewCursorStrategy(store),
		resolver: services.NewDependencyResolver(store),
	}
}

// skipItem decides whether a per-item failure is logged and skipped or ends the run.
// Cancellation and rejected credentials end the run; anything else is skipped.
func skipItem(ctx context.Context, integration domain.IntegrationType, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, domain.ErrAuthInvalid) {
		return err
	}
	logger.Warn("%s: skipping %s: %v", integration, key, err)
	return nil
}
