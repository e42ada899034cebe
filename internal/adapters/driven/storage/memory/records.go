package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// RecordStore is an in-memory implementation of driven.RecordStore.
// Records are stored by value; callers never alias stored state.
type RecordStore[T any] struct {
	mu      sync.RWMutex
	key     func(*T) string
	records map[string]T

	// keep merges engine-unowned columns of the stored record into an upsert.
	keep func(stored, incoming *T)
}

// NewRecordStore creates a store keyed by key.
func NewRecordStore[T any](key func(*T) string) *RecordStore[T] {
	return &RecordStore[T]{
		key:     key,
		records: make(map[string]T),
	}
}

// Get retrieves a record by natural key.
func (s *RecordStore[T]) Get(_ context.Context, key string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Insert writes rec unless its key exists.
func (s *RecordStore[T]) Insert(_ context.Context, rec *T) (bool, error) {
	if rec == nil {
		return false, domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(rec)
	if _, ok := s.records[k]; ok {
		return false, nil
	}
	s.records[k] = *rec
	return true, nil
}

// Upsert writes rec, replacing any record with the same key.
func (s *RecordStore[T]) Upsert(_ context.Context, rec *T) error {
	if rec == nil {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(rec)
	v := *rec
	if stored, ok := s.records[k]; ok && s.keep != nil {
		s.keep(&stored, &v)
	}
	s.records[k] = v
	return nil
}

// All returns every record ordered by key.
func (s *RecordStore[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.records[k])
	}
	return out
}

// Len returns the number of stored records.
func (s *RecordStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ driven.RecordStore[domain.Commit] = (*RecordStore[domain.Commit])(nil)
