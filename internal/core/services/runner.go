package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/ports/driving"
	"github.com/custodia-labs/almanac/internal/logger"
)

// Ensure Runner implements the interface.
var _ driving.IntegrationRunner = (*Runner)(nil)

// OrphanMessage is recorded on runs failed by SweepOrphans.
const OrphanMessage = "orphaned: no terminal write before sweep"

// SyncFunc performs one run and returns the number of records created.
type SyncFunc func(ctx context.Context, runID string) (int, error)

// Runner wraps sync functions in tracked IntegrationRuns.
type Runner struct {
	runs    driven.RunStore
	sources *SourceRegistry

	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner recording into runs and dispatching to sources.
func NewRunner(runs driven.RunStore, sources *SourceRegistry) *Runner {
	if sources == nil {
		sources = NewSourceRegistry()
	}
	return &Runner{
		runs:    runs,
		sources: sources,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Execute creates an in-progress run, invokes fn and records exactly one
// terminal write. The sync error, if any, is returned after it is recorded.
func (r *Runner) Execute(
	ctx context.Context,
	integration domain.IntegrationType,
	runType domain.RunType,
	fn SyncFunc,
) (*domain.RunResult, error) {
	if !runType.IsValid() {
		return nil, fmt.Errorf("%w: run type %q", domain.ErrInvalidInput, runType)
	}

	run := domain.NewIntegrationRun(r.newID(), integration, runType, r.now())
	if err := r.runs.Create(ctx, &run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	logger.Info("Starting %s %s (run %s)", runType, integration, run.ID)

	created, syncErr := fn(ctx, run.ID)

	var completion domain.RunCompletion
	if syncErr != nil {
		completion = domain.Failed(r.now(), syncErr)
	} else {
		completion = domain.Succeeded(r.now(), created)
	}

	// The terminal write must land even when ctx was cancelled mid-run.
	if err := r.runs.Complete(context.WithoutCancel(ctx), run.ID, completion); err != nil {
		completeErr := fmt.Errorf("complete run %s: %w", run.ID, err)
		if syncErr != nil {
			return nil, errors.Join(fmt.Errorf("%s %s: %w", runType, integration, syncErr), completeErr)
		}
		return nil, completeErr
	}

	if syncErr != nil {
		logger.Warn("%s %s failed: %v", runType, integration, syncErr)
		return nil, fmt.Errorf("%s %s: %w", runType, integration, syncErr)
	}

	result := &domain.RunResult{
		RunID:          run.ID,
		Integration:    integration,
		RunType:        runType,
		EntriesCreated: created,
		Duration:       completion.EndedAt.Sub(run.StartedAt),
	}
	logger.Info("%s %s complete: %d created in %s", runType, integration, created, result.Duration.Round(time.Millisecond))
	return result, nil
}

// RunIntegration runs the registered source for an integration.
func (r *Runner) RunIntegration(
	ctx context.Context,
	integration domain.IntegrationType,
	runType domain.RunType,
) (*domain.RunResult, error) {
	source, err := r.sources.Get(integration)
	if err != nil {
		return nil, err
	}

	return r.Execute(ctx, integration, runType, func(ctx context.Context, runID string) (int, error) {
		return source.Sync(ctx, driven.SyncRequest{RunID: runID, RunType: runType})
	})
}

// RunAll runs each integration in order, continuing past failures.
// An empty list runs every registered integration.
func (r *Runner) RunAll(
	ctx context.Context,
	integrations []domain.IntegrationType,
	runType domain.RunType,
) ([]domain.RunResult, error) {
	if len(integrations) == 0 {
		integrations = r.sources.Types()
	}

	var results []domain.RunResult
	var errs []error
	for _, integration := range integrations {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", integration, ctx.Err()))
			break
		}
		result, err := r.RunIntegration(ctx, integration, runType)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *result)
	}

	if len(errs) > 0 {
		return results, errors.Join(errs...)
	}
	return results, nil
}

// SweepOrphans fails in-progress runs that started more than olderThan ago.
func (r *Runner) SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: orphan timeout must be positive", domain.ErrInvalidInput)
	}

	now := r.now()
	n, err := r.runs.SweepOrphans(ctx, now.Add(-olderThan), now, OrphanMessage)
	if err != nil {
		return 0, fmt.Errorf("sweep orphaned runs: %w", err)
	}
	if n > 0 {
		logger.Warn("Marked %d orphaned run(s) as failed", n)
	}
	return n, nil
}

// ListRuns returns recorded runs newest first.
func (r *Runner) ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.IntegrationRun, error) {
	runs, err := r.runs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Registered returns the integrations that have a source.
func (r *Runner) Registered() []domain.IntegrationType {
	return r.sources.Types()
}
