package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// IntegrationRunner runs integrations under a tracked IntegrationRun.
type IntegrationRunner interface {
	// RunIntegration runs one registered integration.
	// A failed run is recorded before the error is returned.
	RunIntegration(ctx context.Context, integration domain.IntegrationType, runType domain.RunType) (*domain.RunResult, error)

	// RunAll runs each integration in order and joins their errors.
	// A failure does not stop later integrations.
	RunAll(ctx context.Context, integrations []domain.IntegrationType, runType domain.RunType) ([]domain.RunResult, error)

	// SweepOrphans fails in-progress runs older than olderThan.
	SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error)

	// ListRuns returns recorded runs newest first.
	ListRuns(ctx context.Context, filter domain.RunFilter) ([]domain.IntegrationRun, error)

	// Registered returns the integrations that have a source.
	Registered() []domain.IntegrationType
}
