package domain

import (
	"fmt"
	"time"
)

// RunType distinguishes a full backfill from an incremental sync.
type RunType string

const (
	// RunTypeSeed ignores any stored boundary and fetches full history.
	RunTypeSeed RunType = "seed"
	// RunTypeSync fetches only what lies beyond the stored boundary.
	RunTypeSync RunType = "sync"
)

// IsValid reports whether r is a known run type.
func (r RunType) IsValid() bool {
	return r == RunTypeSeed || r == RunTypeSync
}

// RunStatus is the lifecycle state of an IntegrationRun.
type RunStatus string

const (
	// RunStatusInProgress is the initial state.
	RunStatusInProgress RunStatus = "in_progress"
	// RunStatusSuccess is terminal.
	RunStatusSuccess RunStatus = "success"
	// RunStatusFail is terminal.
	RunStatusFail RunStatus = "fail"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSuccess || s == RunStatusFail
}

// IsValid reports whether s is a known status.
func (s RunStatus) IsValid() bool {
	return s == RunStatusInProgress || s.IsTerminal()
}

// IntegrationRun is the audit record of one sync or seed execution.
// Runs are append-only: created in progress, completed exactly once, never deleted.
type IntegrationRun struct {
	// ID is the unique identifier for the run.
	ID string

	// Integration identifies the source that was synced.
	Integration IntegrationType

	// RunType is seed or sync.
	RunType RunType

	// Status is the lifecycle state.
	Status RunStatus

	// StartedAt is when the run record was created.
	StartedAt time.Time

	// EndedAt is set iff Status is terminal.
	EndedAt *time.Time

	// Message holds the error text of a failed run.
	Message *string

	// EntriesCreated counts records created. Only meaningful on success.
	EntriesCreated int
}

// NewIntegrationRun creates an in-progress run.
func NewIntegrationRun(id string, integration IntegrationType, runType RunType, startedAt time.Time) IntegrationRun {
	return IntegrationRun{
		ID:          id,
		Integration: integration,
		RunType:     runType,
		Status:      RunStatusInProgress,
		StartedAt:   startedAt,
	}
}

// RunCompletion describes the single terminal write of a run.
type RunCompletion struct {
	Status         RunStatus
	EndedAt        time.Time
	Message        *string
	EntriesCreated int
}

// Succeeded builds the completion of a successful run.
func Succeeded(at time.Time, created int) RunCompletion {
	return RunCompletion{Status: RunStatusSuccess, EndedAt: at, EntriesCreated: created}
}

// Failed builds the completion of a failed run.
func Failed(at time.Time, cause error) RunCompletion {
	msg := cause.Error()
	return RunCompletion{Status: RunStatusFail, EndedAt: at, Message: &msg}
}

// Complete applies c to the run, enforcing in_progress -> success|fail.
func (r *IntegrationRun) Complete(c RunCompletion) error {
	if r.Status != RunStatusInProgress {
		return fmt.Errorf("%w: run %s is already %s", ErrInvalidTransition, r.ID, r.Status)
	}
	if !c.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is not terminal", ErrInvalidTransition, c.Status)
	}
	ended := c.EndedAt
	r.Status = c.Status
	r.EndedAt = &ended
	r.Message = c.Message
	r.EntriesCreated = 0
	if c.Status == RunStatusSuccess {
		r.EntriesCreated = c.EntriesCreated
	}
	return nil
}

// Duration returns the elapsed time of a terminal run, zero otherwise.
func (r *IntegrationRun) Duration() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// RunResult is returned to callers of a completed run.
type RunResult struct {
	RunID          string
	Integration    IntegrationType
	RunType        RunType
	EntriesCreated int
	Duration       time.Duration
}

// RunFilter narrows run listings. Zero values mean no filter.
type RunFilter struct {
	Integration IntegrationType
	Status      RunStatus
	Limit       int
}
