package driven

import (
	"context"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// SyncRequest is passed to a Source for one run.
type SyncRequest struct {
	// RunID identifies the IntegrationRun. Written records carry it as provenance.
	RunID string

	// RunType is seed or sync. Seed runs ignore the stored boundary.
	RunType domain.RunType
}

// Source syncs one integration into the canonical store.
// Each integration type (github_commits, google_drive, etc.) implements this interface.
type Source interface {
	// Integration returns the integration type identifier.
	Integration() domain.IntegrationType

	// Sync fetches new data and merges it into the store.
	// Returns the number of canonical records created.
	// Per-item failures are logged and skipped; a returned error fails the run.
	Sync(ctx context.Context, req SyncRequest) (int, error)
}

// PageFetcher fetches one page of a paginated listing.
// An empty token requests the first page.
// Throttling is reported by returning a *domain.RateLimitError.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, token string) (domain.Page[T], error)
}

// PageFetcherFunc adapts a function to a PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, token string) (domain.Page[T], error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, token string) (domain.Page[T], error) {
	return f(ctx, token)
}
