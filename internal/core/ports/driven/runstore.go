package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// RunStore persists IntegrationRun records.
// Runs are append-only: never deleted, completed exactly once.
type RunStore interface {
	// Create inserts a new in-progress run.
	Create(ctx context.Context, run *domain.IntegrationRun) error

	// Complete applies the terminal write to an in-progress run.
	// Returns domain.ErrNotFound for an unknown id and
	// domain.ErrInvalidTransition if the run is already terminal.
	Complete(ctx context.Context, id string, completion domain.RunCompletion) error

	// Get retrieves a run by ID.
	// Returns domain.ErrNotFound if the run doesn't exist.
	Get(ctx context.Context, id string) (*domain.IntegrationRun, error)

	// List returns runs newest first.
	List(ctx context.Context, filter domain.RunFilter) ([]domain.IntegrationRun, error)

	// SweepOrphans fails every in-progress run started before cutoff,
	// ending it at endedAt with message. Returns how many runs were swept.
	SweepOrphans(ctx context.Context, cutoff, endedAt time.Time, message string) (int, error)
}
