package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/logger"
)

// CursorStrategy derives incremental boundaries from the canonical store.
type CursorStrategy struct {
	store driven.BoundaryStore
}

// NewCursorStrategy creates a cursor strategy over store.
func NewCursorStrategy(store driven.BoundaryStore) *CursorStrategy {
	return &CursorStrategy{store: store}
}

// Boundary returns the boundary for one run. Seed runs always get nil so the
// source backfills its full history. Callers read it once at run start.
func (c *CursorStrategy) Boundary(ctx context.Context, scope domain.Scope, runType domain.RunType) (*domain.Boundary, error) {
	if runType == domain.RunTypeSeed {
		logger.Debug("%s: seed run, ignoring stored boundary", scope.Integration)
		return nil, nil
	}

	b, err := c.store.MaxBoundary(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("query boundary for %s: %w", scope.Integration, err)
	}
	logger.Debug("%s: boundary %s", scope.Integration, b)
	return b, nil
}
