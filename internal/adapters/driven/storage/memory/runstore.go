package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.IntegrationRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.IntegrationRun),
	}
}

// Create stores a new run.
func (s *RunStore) Create(_ context.Context, run *domain.IntegrationRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrAlreadyExists)
	}
	s.runs[run.ID] = *run
	return nil
}

// Complete applies the terminal write.
func (s *RunStore) Complete(_ context.Context, id string, completion domain.RunCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := run.Complete(completion); err != nil {
		return err
	}
	s.runs[id] = run
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(_ context.Context, id string) (*domain.IntegrationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// List returns runs newest first.
func (s *RunStore) List(_ context.Context, filter domain.RunFilter) ([]domain.IntegrationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.IntegrationRun, 0, len(s.runs))
	for _, run := range s.runs {
		if filter.Integration != "" && run.Integration != filter.Integration {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		result = append(result, run)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// SweepOrphans fails in-progress runs started before cutoff.
func (s *RunStore) SweepOrphans(_ context.Context, cutoff, endedAt time.Time, message string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := message
	swept := 0
	for id, run := range s.runs {
		if run.Status != domain.RunStatusInProgress || !run.StartedAt.Before(cutoff) {
			continue
		}
		if err := run.Complete(domain.RunCompletion{Status: domain.RunStatusFail, EndedAt: endedAt, Message: &msg}); err != nil {
			return swept, err
		}
		s.runs[id] = run
		swept++
	}
	return swept, nil
}
