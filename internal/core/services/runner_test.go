package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/almanac/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// --- Mock implementations for runner testing ---

// failingRunStore wraps a memory run store with injectable failures.
type failingRunStore struct {
	*memory.RunStore
	createErr   error
	completeErr error
	sweepErr    error
}

func (s *failingRunStore) Create(ctx context.Context, run *domain.IntegrationRun) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.RunStore.Create(ctx, run)
}

func (s *failingRunStore) Complete(ctx context.Context, id string, c domain.RunCompletion) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	return s.RunStore.Complete(ctx, id, c)
}

func (s *failingRunStore) SweepOrphans(ctx context.Context, cutoff, endedAt time.Time, msg string) (int, error) {
	if s.sweepErr != nil {
		return 0, s.sweepErr
	}
	return s.RunStore.SweepOrphans(ctx, cutoff, endedAt, msg)
}

// stubSource is a driven.Source returning canned results.
type stubSource struct {
	integration domain.IntegrationType
	created     int
	err         error
	requests    []driven.SyncRequest
}

func (s *stubSource) Integration() domain.IntegrationType { return s.integration }

func (s *stubSource) Sync(_ context.Context, req driven.SyncRequest) (int, error) {
	s.requests = append(s.requests, req)
	return s.created, s.err
}

func newTestRunner(runs driven.RunStore, sources ...driven.Source) *Runner {
	r := NewRunner(runs, NewSourceRegistry(sources...))
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	return r
}

func TestRunner_ExecuteSuccess(t *testing.T) {
	runs := memory.NewRunStore()
	runner := newTestRunner(runs)
	ctx := context.Background()

	var seenID string
	result, err := runner.Execute(ctx, domain.IntegrationGitHubStars, domain.RunTypeSync, func(_ context.Context, runID string) (int, error) {
		seenID = runID
		run, err := runs.Get(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusInProgress, run.Status, "run is recorded before the sync starts")
		return 4, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, seenID, result.RunID)
	assert.Equal(t, 4, result.EntriesCreated)

	run, err := runs.Get(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, run.Status)
	assert.Equal(t, 4, run.EntriesCreated)
	assert.NotNil(t, run.EndedAt)
	assert.Nil(t, run.Message)
}

func TestRunner_ExecuteFailureKeepsWrittenRecords(t *testing.T) {
	runs := memory.NewRunStore()
	store := memory.NewCanonicalStore()
	runner := newTestRunner(runs)
	ctx := context.Background()

	syncErr := errors.New("upstream schema changed")
	_, err := runner.Execute(ctx, domain.IntegrationGitHubCommits, domain.RunTypeSync, func(ctx context.Context, runID string) (int, error) {
		for i := 0; i < 3; i++ {
			c := domain.Commit{Provenance: domain.Provenance{RunID: runID}, SHA: fmt.Sprintf("sha-%d", i)}
			if _, err := Merge(ctx, store.Commits(), CommitKind, &c); err != nil {
				return i, err
			}
		}
		return 3, syncErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, syncErr)

	run, getErr := runs.Get(ctx, "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.RunStatusFail, run.Status)
	require.NotNil(t, run.Message)
	assert.Equal(t, "upstream schema changed", *run.Message)
	assert.NotNil(t, run.EndedAt)
	assert.Zero(t, run.EntriesCreated)

	assert.Len(t, store.AllCommits(), 3, "records written before the failure remain")
}

func TestRunner_ExecuteCreateFailure(t *testing.T) {
	runs := &failingRunStore{RunStore: memory.NewRunStore(), createErr: errors.New("disk full")}
	runner := newTestRunner(runs)

	called := false
	_, err := runner.Execute(context.Background(), domain.IntegrationGoogleDrive, domain.RunTypeSync, func(context.Context, string) (int, error) {
		called = true
		return 0, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create run")
	assert.False(t, called, "sync must not run without a tracked run")
}

func TestRunner_ExecuteCompleteFailureJoined(t *testing.T) {
	runs := &failingRunStore{RunStore: memory.NewRunStore(), completeErr: errors.New("locked")}
	runner := newTestRunner(runs)
	syncErr := errors.New("auth")

	_, err := runner.Execute(context.Background(), domain.IntegrationGoogleDrive, domain.RunTypeSync, func(context.Context, string) (int, error) {
		return 0, syncErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, syncErr)
	assert.Contains(t, err.Error(), "locked")
}

func TestRunner_ExecuteCancelledContextStillCompletes(t *testing.T) {
	runs := memory.NewRunStore()
	runner := newTestRunner(runs)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := runner.Execute(ctx, domain.IntegrationBrowserHistory, domain.RunTypeSync, func(ctx context.Context, _ string) (int, error) {
		cancel()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	run, getErr := runs.Get(context.Background(), "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.RunStatusFail, run.Status)
}

func TestRunner_ExecuteInvalidRunType(t *testing.T) {
	runner := newTestRunner(memory.NewRunStore())

	_, err := runner.Execute(context.Background(), domain.IntegrationGitHubStars, "full", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunner_RunIntegration(t *testing.T) {
	src := &stubSource{integration: domain.IntegrationGitHubStars, created: 2}
	runner := newTestRunner(memory.NewRunStore(), src)

	result, err := runner.RunIntegration(context.Background(), domain.IntegrationGitHubStars, domain.RunTypeSeed)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntriesCreated)

	require.Len(t, src.requests, 1)
	assert.Equal(t, result.RunID, src.requests[0].RunID)
	assert.Equal(t, domain.RunTypeSeed, src.requests[0].RunType)
}

func TestRunner_RunIntegration_NotRegistered(t *testing.T) {
	runner := newTestRunner(memory.NewRunStore())

	_, err := runner.RunIntegration(context.Background(), domain.IntegrationGoogleDrive, domain.RunTypeSync)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = runner.RunIntegration(context.Background(), "notion", domain.RunTypeSync)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRunner_RunAllContinuesPastFailure(t *testing.T) {
	failing := &stubSource{integration: domain.IntegrationGitHubCommits, err: domain.ErrAuthInvalid}
	ok := &stubSource{integration: domain.IntegrationGitHubStars, created: 1}
	runs := memory.NewRunStore()
	runner := newTestRunner(runs, failing, ok)

	results, err := runner.RunAll(context.Background(), nil, domain.RunTypeSync)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	require.Len(t, results, 1)
	assert.Equal(t, domain.IntegrationGitHubStars, results[0].Integration)

	all, listErr := runner.ListRuns(context.Background(), domain.RunFilter{})
	require.NoError(t, listErr)
	assert.Len(t, all, 2)
}

func TestRunner_SweepOrphans(t *testing.T) {
	runs := memory.NewRunStore()
	runner := newTestRunner(runs)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }
	ctx := context.Background()

	stale := domain.NewIntegrationRun("stale", domain.IntegrationGitHubCommits, domain.RunTypeSync, now.Add(-7*time.Hour))
	require.NoError(t, runs.Create(ctx, &stale))

	n, err := runner.SweepOrphans(ctx, 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	run, err := runs.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFail, run.Status)
	assert.Equal(t, OrphanMessage, *run.Message)

	_, err = runner.SweepOrphans(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunner_SweepOrphans_StoreError(t *testing.T) {
	runs := &failingRunStore{RunStore: memory.NewRunStore(), sweepErr: errors.New("busy")}
	runner := newTestRunner(runs)

	_, err := runner.SweepOrphans(context.Background(), time.Hour)
	assert.Error(t, err)
}

// commitListSource syncs a fixed remote listing through the engine pieces.
type commitListSource struct {
	store   *memory.CanonicalStore
	cursor  *CursorStrategy
	exec    *FetchExecutor
	commits []domain.Commit
}

func (s *commitListSource) Integration() domain.IntegrationType {
	return domain.IntegrationGitHubCommits
}

func (s *commitListSource) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	boundary, err := s.cursor.Boundary(ctx, domain.Scope{Integration: domain.IntegrationGitHubCommits}, req.RunType)
	if err != nil {
		return 0, err
	}

	fetcher := driven.PageFetcherFunc[domain.Commit](func(_ context.Context, token string) (domain.Page[domain.Commit], error) {
		if token == "" {
			return domain.Page[domain.Commit]{Items: s.commits[:2], NextToken: "2"}, nil
		}
		return domain.Page[domain.Commit]{Items: s.commits[2:]}, nil
	})

	created := 0
	_, err = Paginate(ctx, s.exec, fetcher, FetchOptions[domain.Commit]{
		Reached: func(c domain.Commit) bool { return boundary.Reached(c.CommittedAt) },
	}, func(ctx context.Context, items []domain.Commit) error {
		for i := range items {
			items[i].RunID = req.RunID
			outcome, err := Merge(ctx, s.store.Commits(), CommitKind, &items[i])
			if err != nil {
				return err
			}
			if outcome == OutcomeCreated {
				created++
			}
		}
		return nil
	})
	return created, err
}

func TestRunner_IdempotentResync(t *testing.T) {
	store := memory.NewCanonicalStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &commitListSource{
		store:  store,
		cursor: NewCursorStrategy(store),
		exec:   NewFetchExecutor(0, time.Second),
		commits: []domain.Commit{
			{SHA: "c3", CommittedAt: base.Add(3 * time.Hour)},
			{SHA: "c2", CommittedAt: base.Add(2 * time.Hour)},
			{SHA: "c1", CommittedAt: base.Add(time.Hour)},
		},
	}
	runner := newTestRunner(memory.NewRunStore(), src)
	ctx := context.Background()

	first, err := runner.RunIntegration(ctx, domain.IntegrationGitHubCommits, domain.RunTypeSync)
	require.NoError(t, err)
	assert.Equal(t, 3, first.EntriesCreated)

	second, err := runner.RunIntegration(ctx, domain.IntegrationGitHubCommits, domain.RunTypeSync)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EntriesCreated)

	seed, err := runner.RunIntegration(ctx, domain.IntegrationGitHubCommits, domain.RunTypeSeed)
	require.NoError(t, err)
	assert.Equal(t, 0, seed.EntriesCreated, "a seed re-fetches everything but creates nothing new")

	assert.Len(t, store.AllCommits(), 3)
}
