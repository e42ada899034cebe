package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// EnrichmentSource replaces partial owners and repositories with full payloads.
// It is idempotent: each run takes the next batch still flagged partial.
type EnrichmentSource struct {
	engine
	concurrency int
	batch       int
}

var _ driven.Source = (*EnrichmentSource)(nil)

// NewEnrichmentSource creates the github_enrichment source.
func NewEnrichmentSource(client *Client, store driven.CanonicalStore, exec *services.FetchExecutor, cfg Config) *EnrichmentSource {
	batch := cfg.EnrichmentBatch
	if batch <= 0 {
		batch = domain.DefaultPageSize
	}
	return &EnrichmentSource{
		engine:      newEngine(client, store, exec),
		concurrency: cfg.EnrichmentConcurrency,
		batch:       batch,
	}
}

// Integration returns github_enrichment.
func (s *EnrichmentSource) Integration() domain.IntegrationType {
	return domain.IntegrationGitHubEnrichment
}

// Sync enriches one batch of partial owners, then one batch of partial
// repositories. It returns how many records had their partial flag cleared.
// Seed and sync behave the same.
func (s *EnrichmentSource) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	owners, err := s.store.PartialOwners(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list partial owners: %w", err)
	}
	enrichedOwners, err := enrichAll(ctx, s.concurrency, owners, func(ctx context.Context, o domain.Owner) error {
		return s.enrichOwner(ctx, o, req.RunID)
	})
	if err != nil {
		return enrichedOwners, err
	}

	repos, err := s.store.PartialRepositories(ctx, s.batch)
	if err != nil {
		return enrichedOwners, fmt.Errorf("list partial repositories: %w", err)
	}
	enrichedRepos, err := enrichAll(ctx, s.concurrency, repos, func(ctx context.Context, r domain.Repository) error {
		return s.enrichRepository(ctx, r, req.RunID)
	})

	logger.Info("github_enrichment: %d/%d owners, %d/%d repositories enriched",
		enrichedOwners, len(owners), enrichedRepos, len(repos))
	return enrichedOwners + enrichedRepos, err
}

// enrichAll runs enrich over items concurrently. Individual failures are
// logged; cancellation and rejected credentials fail the run. A rate limit
// stops the rest of the batch and fails the run; the items left partial are
// picked up by the next run.
func enrichAll[T any](ctx context.Context, limit int, items []T, enrich func(context.Context, T) error) (int, error) {
	batchCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	succeeded, err := services.FanOut(batchCtx, items, limit, func(ctx context.Context, item T) error {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		err := enrich(ctx, item)
		if domain.IsRateLimited(err) {
			stop(err)
		}
		return err
	})
	if err == nil {
		return succeeded, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return succeeded, ctxErr
	}
	if cause := context.Cause(batchCtx); domain.IsRateLimited(cause) {
		return succeeded, fmt.Errorf("enrichment batch stopped: %w", cause)
	}
	if errors.Is(err, domain.ErrAuthInvalid) {
		return succeeded, err
	}
	return succeeded, nil
}

// enrichOwner fetches the full owner and clears its partial flag.
// An account GitHub no longer serves is kept as stored and marked complete
// so it does not hold up later batches.
func (s *EnrichmentSource) enrichOwner(ctx context.Context, stub domain.Owner, runID string) error {
	owner := stub
	u, err := s.client.GetUser(ctx, stub.ID)
	switch {
	case err == nil:
		owner, err = mapOwner(u, runID)
		if err != nil {
			logger.Warn("github_enrichment: owner %d: %v", stub.ID, err)
			return err
		}
	case IsGone(err):
		logger.Warn("github_enrichment: owner %d no longer available, keeping stub: %v", stub.ID, err)
		owner.RunID = runID
	default:
		logger.Warn("github_enrichment: owner %d: %v", stub.ID, err)
		return err
	}

	owner.Partial = false
	if _, err := services.Merge(ctx, s.store.Owners(), services.OwnerKind, &owner); err != nil {
		logger.Warn("github_enrichment: owner %d: %v", stub.ID, err)
		return err
	}
	return nil
}

// enrichRepository fetches the full repository and clears its partial flag.
// The stored starred_at survives because the repository payload has none.
func (s *EnrichmentSource) enrichRepository(ctx context.Context, stub domain.Repository, runID string) error {
	repo := stub
	r, err := s.client.GetRepository(ctx, stub.ID)
	switch {
	case err == nil:
		repo, err = mapRepository(r, runID)
		if err != nil {
			logger.Warn("github_enrichment: repository %d: %v", stub.ID, err)
			return err
		}
		// A transferred repository may point at an owner not yet stored.
		owner, err := mapOwner(r.GetOwner(), runID)
		if err != nil {
			logger.Warn("github_enrichment: repository %d: %v", stub.ID, err)
			return err
		}
		if _, err := s.resolver.EnsureOwner(ctx, owner); err != nil {
			logger.Warn("github_enrichment: repository %d: %v", stub.ID, err)
			return err
		}
	case IsGone(err):
		logger.Warn("github_enrichment: repository %d no longer accessible, keeping stub: %v", stub.ID, err)
		repo.RunID = runID
	default:
		logger.Warn("github_enrichment: repository %d: %v", stub.ID, err)
		return err
	}

	repo.Partial = false
	if _, err := services.Merge(ctx, s.store.Repositories(), services.RepositoryKind, &repo); err != nil {
		logger.Warn("github_enrichment: repository %d: %v", stub.ID, err)
		return err
	}
	return nil
}
