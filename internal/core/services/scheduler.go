package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driving"
	"github.com/custodia-labs/almanac/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs a fixed list of integrations as sync runs on an interval.
// Integrations within a pass run sequentially.
type Scheduler struct {
	runner       driving.IntegrationRunner
	integrations []domain.IntegrationType
	interval     time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. An empty integration list runs every
// registered integration.
func NewScheduler(runner driving.IntegrationRunner, integrations []domain.IntegrationType, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = domain.DefaultScheduleInterval
	}
	return &Scheduler{
		runner:       runner,
		integrations: integrations,
		interval:     interval,
	}
}

// Start runs a pass immediately and then once per interval.
// This method blocks until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler, waiting for the current pass.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// runPass runs every scheduled integration once. Failures are already
// recorded on their runs, so they are only logged here.
func (s *Scheduler) runPass(ctx context.Context) {
	logger.Section("Scheduled sync")
	results, err := s.runner.RunAll(ctx, s.integrations, domain.RunTypeSync)

	created := 0
	for _, r := range results {
		created += r.EntriesCreated
	}
	logger.Info("Scheduled pass: %d run(s) succeeded, %d created", len(results), created)
	if err != nil {
		logger.Warn("scheduler: %v", err)
	}
}
