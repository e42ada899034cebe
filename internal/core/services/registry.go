package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// SourceRegistry maps integration types to their sources.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[domain.IntegrationType]driven.Source
}

// NewSourceRegistry creates a registry holding the given sources.
func NewSourceRegistry(sources ...driven.Source) *SourceRegistry {
	r := &SourceRegistry{sources: make(map[domain.IntegrationType]driven.Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the source for its integration type.
func (r *SourceRegistry) Register(s driven.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Integration()] = s
}

// Get returns the source for an integration type.
func (r *SourceRegistry) Get(t domain.IntegrationType) (driven.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[t]
	if !ok {
		if t.IsValid() {
			return nil, fmt.Errorf("%w: %s is not configured", domain.ErrNotFound, t)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, t)
	}
	return s, nil
}

// Types returns registered integrations in dependency order.
func (r *SourceRegistry) Types() []domain.IntegrationType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []domain.IntegrationType
	for _, t := range domain.AllIntegrationTypes() {
		if _, ok := r.sources[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
