package github

import (
	"context"
	"strconv"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// StarsSource syncs repositories starred by the authenticated user.
type StarsSource struct {
	engine
}

var _ driven.Source = (*StarsSource)(nil)

// NewStarsSource creates the github_stars source.
func NewStarsSource(client *Client, store driven.CanonicalStore, exec *services.FetchExecutor) *StarsSource {
	return &StarsSource{engine: newEngine(client, store, exec)}
}

// Integration returns github_stars.
func (s *StarsSource) Integration() domain.IntegrationType {
	return domain.IntegrationGitHubStars
}

// Sync lists stars most recent first and stops at the stored boundary.
func (s *StarsSource) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	boundary, err := s.cursor.Boundary(ctx, domain.Scope{Integration: s.Integration()}, req.RunType)
	if err != nil {
		return 0, err
	}

	fetcher := driven.PageFetcherFunc[*gh.StarredRepository](
		func(ctx context.Context, token string) (domain.Page[*gh.StarredRepository], error) {
			page, err := parsePageToken(token)
			if err != nil {
				return domain.Page[*gh.StarredRepository]{}, err
			}
			items, next, err := s.client.ListStarred(ctx, page)
			if err != nil {
				return domain.Page[*gh.StarredRepository]{}, err
			}
			return domain.Page[*gh.StarredRepository]{Items: items, NextToken: pageToken(next)}, nil
		})

	opts := services.FetchOptions[*gh.StarredRepository]{
		Reached: func(star *gh.StarredRepository) bool {
			at := timestamp(star.StarredAt)
			return at != nil && boundary.Reached(*at)
		},
	}

	created := 0
	stats, err := services.Paginate(ctx, s.exec, fetcher, opts, func(ctx context.Context, items []*gh.StarredRepository) error {
		for _, item := range items {
			outcome, err := s.storeStar(ctx, item, req.RunID)
			if err != nil {
				key := "repository " + strconv.FormatInt(item.GetRepository().GetID(), 10)
				if err := skipItem(ctx, s.Integration(), key, err); err != nil {
					return err
				}
				continue
			}
			if outcome == services.OutcomeCreated {
				created++
			}
		}
		return nil
	})
	logger.Info("github_stars: %d pages, %d stars seen, %d created (%s)", stats.Pages, stats.Items, created, s.client.Quota())
	return created, err
}

// storeStar resolves the owner and merges the full repository payload,
// keeping any starred_at already stored when the payload lacks one.
func (s *StarsSource) storeStar(ctx context.Context, item *gh.StarredRepository, runID string) (services.Outcome, error) {
	repo, err := mapRepository(item.GetRepository(), runID)
	if err != nil {
		return 0, err
	}
	repo.StarredAt = timestamp(item.StarredAt)

	owner, err := mapOwner(item.GetRepository().GetOwner(), runID)
	if err != nil {
		return 0, err
	}
	if _, err := s.resolver.EnsureOwner(ctx, owner); err != nil {
		return 0, err
	}

	return services.Merge(ctx, s.store.Repositories(), services.RepositoryKind, &repo)
}
