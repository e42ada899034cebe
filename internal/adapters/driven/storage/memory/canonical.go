package memory

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// Ensure CanonicalStore implements the interface.
var _ driven.CanonicalStore = (*CanonicalStore)(nil)

// CanonicalStore is an in-memory implementation of driven.CanonicalStore
// used by service and connector tests.
type CanonicalStore struct {
	owners       *RecordStore[domain.Owner]
	repositories *RecordStore[domain.Repository]
	commits      *RecordStore[domain.Commit]
	documents    *RecordStore[domain.Document]
	visits       *RecordStore[domain.Visit]
}

// NewCanonicalStore creates an empty canonical store.
func NewCanonicalStore() *CanonicalStore {
	commits := NewRecordStore((*domain.Commit).Key)
	commits.keep = func(stored, incoming *domain.Commit) {
		incoming.Summary = stored.Summary
	}
	return &CanonicalStore{
		owners:       NewRecordStore((*domain.Owner).Key),
		repositories: NewRecordStore((*domain.Repository).Key),
		commits:      commits,
		documents:    NewRecordStore((*domain.Document).Key),
		visits:       NewRecordStore((*domain.Visit).Key),
	}
}

// Owners returns the owner store.
func (s *CanonicalStore) Owners() driven.RecordStore[domain.Owner] { return s.owners }

// Repositories returns the repository store.
func (s *CanonicalStore) Repositories() driven.RecordStore[domain.Repository] {
	return s.repositories
}

// Commits returns the commit store.
func (s *CanonicalStore) Commits() driven.RecordStore[domain.Commit] { return s.commits }

// Documents returns the document store.
func (s *CanonicalStore) Documents() driven.RecordStore[domain.Document] { return s.documents }

// Visits returns the visit store.
func (s *CanonicalStore) Visits() driven.RecordStore[domain.Visit] { return s.visits }

// AllOwners returns every owner ordered by key.
func (s *CanonicalStore) AllOwners() []domain.Owner { return s.owners.All() }

// AllRepositories returns every repository ordered by key.
func (s *CanonicalStore) AllRepositories() []domain.Repository { return s.repositories.All() }

// AllCommits returns every commit ordered by key.
func (s *CanonicalStore) AllCommits() []domain.Commit { return s.commits.All() }

// AllDocuments returns every document ordered by key.
func (s *CanonicalStore) AllDocuments() []domain.Document { return s.documents.All() }

// AllVisits returns every visit ordered by key.
func (s *CanonicalStore) AllVisits() []domain.Visit { return s.visits.All() }

// PartialOwners returns up to limit partial owners, lowest id first.
func (s *CanonicalStore) PartialOwners(_ context.Context, limit int) ([]domain.Owner, error) {
	var out []domain.Owner
	for _, o := range s.owners.All() {
		if o.Partial {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return truncate(out, limit), nil
}

// PartialRepositories returns up to limit partial repositories, lowest id first.
func (s *CanonicalStore) PartialRepositories(_ context.Context, limit int) ([]domain.Repository, error) {
	var out []domain.Repository
	for _, r := range s.repositories.All() {
		if r.Partial {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return truncate(out, limit), nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// MaxBoundary returns the latest stored timestamp for the scope.
func (s *CanonicalStore) MaxBoundary(_ context.Context, scope domain.Scope) (*domain.Boundary, error) {
	var times []time.Time

	switch scope.Integration {
	case domain.IntegrationGitHubCommits:
		for _, c := range s.commits.All() {
			times = append(times, c.CommittedAt)
		}
	case domain.IntegrationGitHubStars:
		for _, r := range s.repositories.All() {
			if r.StarredAt != nil {
				times = append(times, *r.StarredAt)
			}
		}
	case domain.IntegrationGoogleDrive:
		for _, d := range s.documents.All() {
			times = append(times, d.ModifiedAt)
		}
	case domain.IntegrationBrowserHistory:
		for _, v := range s.visits.All() {
			if scope.Instance == "" || v.Hostname == scope.Instance {
				times = append(times, v.LastViewTime)
			}
		}
	case domain.IntegrationGitHubEnrichment:
		return nil, nil
	default:
		return nil, domain.ErrUnsupportedType
	}

	if len(times) == 0 {
		return nil, nil
	}
	latest := times[0]
	for _, t := range times[1:] {
		if t.After(latest) {
			latest = t
		}
	}
	return &domain.Boundary{At: latest}, nil
}
