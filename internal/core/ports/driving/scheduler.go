package driving

import "context"

// Scheduler runs integrations on a fixed interval.
type Scheduler interface {
	// Start begins running scheduled integrations.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler after the current pass.
	Stop() error
}
