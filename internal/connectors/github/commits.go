package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// CommitsSource syncs commits authored by the configured login.
type CommitsSource struct {
	engine
	login string
}

var _ driven.Source = (*CommitsSource)(nil)

// NewCommitsSource creates the github_commits source.
func NewCommitsSource(client *Client, store driven.CanonicalStore, exec *services.FetchExecutor, cfg Config) *CommitsSource {
	return &CommitsSource{engine: newEngine(client, store, exec), login: cfg.Login}
}

// Integration returns github_commits.
func (s *CommitsSource) Integration() domain.IntegrationType {
	return domain.IntegrationGitHubCommits
}

// Sync searches commits newest first and stops at the stored boundary.
func (s *CommitsSource) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	if s.login == "" {
		return 0, ErrMissingLogin
	}

	boundary, err := s.cursor.Boundary(ctx, domain.Scope{Integration: s.Integration()}, req.RunType)
	if err != nil {
		return 0, err
	}
	query := commitQuery(s.login, boundary)
	logger.Debug("github_commits: search %q", query)

	fetcher := driven.PageFetcherFunc[*gh.CommitResult](
		func(ctx context.Context, token string) (domain.Page[*gh.CommitResult], error) {
			page, err := parsePageToken(token)
			if err != nil {
				return domain.Page[*gh.CommitResult]{}, err
			}
			items, next, err := s.client.SearchCommits(ctx, query, page)
			if err != nil {
				return domain.Page[*gh.CommitResult]{}, err
			}
			return domain.Page[*gh.CommitResult]{Items: items, NextToken: pageToken(next)}, nil
		})

	opts := services.FetchOptions[*gh.CommitResult]{
		Reached: func(c *gh.CommitResult) bool {
			at := committedAt(c)
			return at != nil && boundary.Reached(*at)
		},
	}

	created := 0
	stats, err := services.Paginate(ctx, s.exec, fetcher, opts, func(ctx context.Context, items []*gh.CommitResult) error {
		for _, item := range items {
			outcome, err := s.storeCommit(ctx, item, req.RunID)
			if err != nil {
				if err := skipItem(ctx, s.Integration(), "commit "+item.GetSHA(), err); err != nil {
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
	logger.Info("github_commits: %d pages, %d commits seen, %d created (%s)", stats.Pages, stats.Items, created, s.client.Quota())
	return created, err
}

// storeCommit resolves the commit's repository, its owner and the commit
// author, then inserts the commit unless it is already stored.
func (s *CommitsSource) storeCommit(ctx context.Context, item *gh.CommitResult, runID string) (services.Outcome, error) {
	commit, err := mapCommit(item, runID)
	if err != nil {
		return 0, err
	}
	repo, err := mapRepository(item.GetRepository(), runID)
	if err != nil {
		return 0, err
	}
	owner, err := mapOwner(item.GetRepository().GetOwner(), runID)
	if err != nil {
		return 0, err
	}

	if _, err := s.resolver.EnsureOwner(ctx, owner); err != nil {
		return 0, err
	}
	if _, err := s.resolver.EnsureRepository(ctx, repo); err != nil {
		return 0, err
	}

	if commit.AuthorID != nil {
		author, err := mapOwner(item.GetAuthor(), runID)
		if err != nil {
			logger.Debug("github_commits: unlinking author of %s: %v", commit.SHA, err)
			commit.AuthorID = nil
		} else if _, err := s.resolver.EnsureOwner(ctx, author); err != nil {
			return 0, err
		}
	}

	return services.Merge(ctx, s.store.Commits(), services.CommitKind, &commit)
}

// commitQuery builds the search query. With a boundary the search is
// narrowed server side; the boundary check during paging stays authoritative.
func commitQuery(login string, boundary *domain.Boundary) string {
	q := fmt.Sprintf("author:%s", login)
	if boundary != nil {
		q += " committer-date:>" + boundary.At.UTC().Format(time.RFC3339)
	}
	return q
}
