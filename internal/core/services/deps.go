package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/logger"
)

// DependencyResolver makes referenced parents exist before a child is written.
type DependencyResolver struct {
	store driven.CanonicalStore
}

// NewDependencyResolver creates a resolver over store.
func NewDependencyResolver(store driven.CanonicalStore) *DependencyResolver {
	return &DependencyResolver{store: store}
}

// EnsureOwner inserts stub as a partial owner unless the id is already stored.
// Reports whether a stub was created.
func (d *DependencyResolver) EnsureOwner(ctx context.Context, stub domain.Owner) (bool, error) {
	stub.Partial = true
	inserted, err := ensure(ctx, d.store.Owners(), OwnerKind, &stub)
	if inserted {
		logger.Debug("Inserted partial owner %s (%d)", stub.Login, stub.ID)
	}
	return inserted, err
}

// EnsureRepository inserts stub as a partial repository unless the id is already stored.
// The repository owner must already exist.
func (d *DependencyResolver) EnsureRepository(ctx context.Context, stub domain.Repository) (bool, error) {
	stub.Partial = true
	inserted, err := ensure(ctx, d.store.Repositories(), RepositoryKind, &stub)
	if inserted {
		logger.Debug("Inserted partial repository %s (%d)", stub.FullName, stub.ID)
	}
	return inserted, err
}

func ensure[T any](ctx context.Context, store driven.RecordStore[T], kind Kind[T], stub *T) (bool, error) {
	key := kind.Key(stub)
	_, err := store.Get(ctx, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("get %s %s: %w", kind.Name, key, err)
	}
	inserted, err := store.Insert(ctx, stub)
	if err != nil {
		return false, fmt.Errorf("insert partial %s %s: %w", kind.Name, key, err)
	}
	return inserted, nil
}

// ResolveParent keeps doc's parent link only if the parent is in the current
// batch or already stored. An unknown parent is dropped to nil while
// SourceParentID keeps the id the source reported.
func (d *DependencyResolver) ResolveParent(ctx context.Context, doc *domain.Document, inBatch map[string]bool) error {
	parent := doc.ParentKey()
	if parent == "" {
		doc.ParentID = nil
		return nil
	}
	if inBatch[parent] {
		doc.ParentID = &parent
		return nil
	}

	_, err := d.store.Documents().Get(ctx, parent)
	switch {
	case err == nil:
		doc.ParentID = &parent
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Parent %s of %s not stored, dropping link", parent, doc.ID)
		doc.ParentID = nil
	default:
		return fmt.Errorf("get parent document %s: %w", parent, err)
	}
	return nil
}
