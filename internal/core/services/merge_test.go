package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/almanac/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/almanac/internal/core/domain"
)

// countingStore counts writes reaching a record store.
type countingStore[T any] struct {
	*memory.RecordStore[T]
	inserts int
	upserts int
	getErr  error
}

func (s *countingStore[T]) Get(ctx context.Context, key string) (*T, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.RecordStore.Get(ctx, key)
}

func (s *countingStore[T]) Insert(ctx context.Context, rec *T) (bool, error) {
	s.inserts++
	return s.RecordStore.Insert(ctx, rec)
}

func (s *countingStore[T]) Upsert(ctx context.Context, rec *T) error {
	s.upserts++
	return s.RecordStore.Upsert(ctx, rec)
}

func TestMerge_SkipIfExists(t *testing.T) {
	store := &countingStore[domain.Commit]{RecordStore: memory.NewRecordStore((*domain.Commit).Key)}
	ctx := context.Background()

	outcome, err := Merge(ctx, store, CommitKind, &domain.Commit{SHA: "abc", Message: "one"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	outcome, err = Merge(ctx, store, CommitKind, &domain.Commit{SHA: "abc", Message: "changed"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Message)
	assert.Equal(t, 1, store.inserts)
	assert.Zero(t, store.upserts)
}

func TestMerge_UpsertReplace(t *testing.T) {
	store := &countingStore[domain.Document]{RecordStore: memory.NewRecordStore((*domain.Document).Key)}
	ctx := context.Background()
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := domain.Document{ID: "d1", Title: "Draft", ModifiedAt: modified}
	outcome, err := Merge(ctx, store, DocumentKind, &doc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	renamed := domain.Document{ID: "d1", Title: "Final", ModifiedAt: modified.Add(time.Hour)}
	outcome, err = Merge(ctx, store, DocumentKind, &renamed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	got, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
}

func TestMerge_UnchangedIgnoresProvenance(t *testing.T) {
	store := &countingStore[domain.Document]{RecordStore: memory.NewRecordStore((*domain.Document).Key)}
	ctx := context.Background()
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := Merge(ctx, store, DocumentKind, &domain.Document{Provenance: domain.Provenance{RunID: "r1"}, ID: "d1", ModifiedAt: modified})
	require.NoError(t, err)

	// Same instant in another location is still the same record.
	outcome, err := Merge(ctx, store, DocumentKind, &domain.Document{
		Provenance: domain.Provenance{RunID: "r2"},
		ID:         "d1",
		ModifiedAt: modified.In(time.FixedZone("CET", 3600)),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 1, store.upserts, "an unchanged record is not rewritten")

	got, _ := store.Get(ctx, "d1")
	assert.Equal(t, "r1", got.RunID)
}

func TestMerge_PreserveField(t *testing.T) {
	store := memory.NewRecordStore((*domain.Repository).Key)
	ctx := context.Background()
	t0 := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := Merge(ctx, store, RepositoryKind, &domain.Repository{ID: 7, Name: "almanac", StarredAt: &t0})
	require.NoError(t, err)

	outcome, err := Merge(ctx, store, RepositoryKind, &domain.Repository{ID: 7, Name: "almanac", StargazersCount: 10})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	got, err := store.Get(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, got.StarredAt)
	assert.Equal(t, t0, *got.StarredAt)
	assert.Equal(t, 10, got.StargazersCount)

	t1 := t0.Add(24 * time.Hour)
	_, err = Merge(ctx, store, RepositoryKind, &domain.Repository{ID: 7, Name: "almanac", StargazersCount: 10, StarredAt: &t1})
	require.NoError(t, err)
	got, _ = store.Get(ctx, "7")
	assert.Equal(t, t1, *got.StarredAt, "a payload value replaces the stored one")
}

func TestMerge_PreserveFieldWithoutFunc(t *testing.T) {
	store := memory.NewRecordStore((*domain.Repository).Key)
	ctx := context.Background()
	kind := Kind[domain.Repository]{Name: "repository", Policy: UpsertPreserveField, Key: (*domain.Repository).Key}

	_, err := Merge(ctx, store, kind, &domain.Repository{ID: 1})
	require.NoError(t, err)

	_, err = Merge(ctx, store, kind, &domain.Repository{ID: 1, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMerge_GetError(t *testing.T) {
	store := &countingStore[domain.Commit]{
		RecordStore: memory.NewRecordStore((*domain.Commit).Key),
		getErr:      errors.New("io"),
	}

	_, err := Merge(context.Background(), store, CommitKind, &domain.Commit{SHA: "a"})
	assert.Error(t, err)
	assert.Zero(t, store.inserts)
}

func TestPolicyAndOutcome_String(t *testing.T) {
	assert.Equal(t, "skip-if-exists", SkipIfExists.String())
	assert.Equal(t, "upsert-replace", UpsertReplace.String())
	assert.Equal(t, "upsert-preserve-field", UpsertPreserveField.String())
	assert.Equal(t, "created", OutcomeCreated.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
}
