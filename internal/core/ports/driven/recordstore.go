package driven

import (
	"context"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// RecordStore persists one kind of canonical record by natural key.
type RecordStore[T any] interface {
	// Get retrieves a record by natural key.
	// Returns domain.ErrNotFound if no record has the key.
	Get(ctx context.Context, key string) (*T, error)

	// Insert writes rec unless its key already exists.
	// Reports whether a row was written.
	Insert(ctx context.Context, rec *T) (bool, error)

	// Upsert writes rec, replacing all columns of an existing row
	// except those the sync engine never owns (commit summaries).
	Upsert(ctx context.Context, rec *T) error
}

// BoundaryStore derives incremental cursors from stored records.
type BoundaryStore interface {
	// MaxBoundary returns the latest stored timestamp for the scope,
	// or nil when the scope holds no records or has no boundary.
	MaxBoundary(ctx context.Context, scope domain.Scope) (*domain.Boundary, error)
}

// CanonicalStore is the relational store of canonical records.
type CanonicalStore interface {
	BoundaryStore

	Owners() RecordStore[domain.Owner]
	Repositories() RecordStore[domain.Repository]
	Commits() RecordStore[domain.Commit]
	Documents() RecordStore[domain.Document]
	Visits() RecordStore[domain.Visit]

	// PartialOwners returns up to limit owners still flagged partial, lowest id first.
	PartialOwners(ctx context.Context, limit int) ([]domain.Owner, error)

	// PartialRepositories returns up to limit repositories still flagged partial, lowest id first.
	PartialRepositories(ctx context.Context, limit int) ([]domain.Repository, error)
}
