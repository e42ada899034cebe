package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// Policy is a conflict resolution policy for one record kind.
type Policy int

const (
	// SkipIfExists never touches a stored record. For immutable kinds.
	SkipIfExists Policy = iota

	// UpsertReplace overwrites every field of a stored record.
	UpsertReplace

	// UpsertPreserveField overwrites every field except the kind's preserved
	// field, whose stored value survives when the payload lacks it.
	UpsertPreserveField
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case SkipIfExists:
		return "skip-if-exists"
	case UpsertReplace:
		return "upsert-replace"
	case UpsertPreserveField:
		return "upsert-preserve-field"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Outcome is the result of merging one record.
type Outcome int

const (
	// OutcomeCreated means no record had the key and one was written.
	OutcomeCreated Outcome = iota
	// OutcomeUpdated means a stored record was overwritten with new values.
	OutcomeUpdated
	// OutcomeUnchanged means the stored record already matched; nothing was written.
	OutcomeUnchanged
	// OutcomeSkipped means the key existed under SkipIfExists.
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Kind describes how records of one type are merged.
type Kind[T any] struct {
	Name   string
	Policy Policy
	Key    func(rec *T) string

	// Preserve copies preserved fields from stored into incoming.
	// Required for UpsertPreserveField.
	Preserve func(stored, incoming *T)
}

// provenanceBlind ignores run provenance when detecting changes.
var provenanceBlind = cmpopts.IgnoreTypes(domain.Provenance{})

// Merge writes rec according to the kind's policy.
func Merge[T any](ctx context.Context, store driven.RecordStore[T], kind Kind[T], rec *T) (Outcome, error) {
	key := kind.Key(rec)

	stored, err := store.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("get %s %s: %w", kind.Name, key, err)
	}

	if stored == nil {
		if kind.Policy == SkipIfExists {
			inserted, err := store.Insert(ctx, rec)
			if err != nil {
				return 0, fmt.Errorf("insert %s %s: %w", kind.Name, key, err)
			}
			if !inserted {
				return OutcomeSkipped, nil
			}
			return OutcomeCreated, nil
		}
		if err := store.Upsert(ctx, rec); err != nil {
			return 0, fmt.Errorf("upsert %s %s: %w", kind.Name, key, err)
		}
		return OutcomeCreated, nil
	}

	switch kind.Policy {
	case SkipIfExists:
		return OutcomeSkipped, nil
	case UpsertPreserveField:
		if kind.Preserve == nil {
			return 0, fmt.Errorf("%w: %s has no preserved field", domain.ErrInvalidInput, kind.Name)
		}
		kind.Preserve(stored, rec)
	case UpsertReplace:
	default:
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidInput, kind.Policy)
	}

	if cmp.Equal(stored, rec, provenanceBlind) {
		return OutcomeUnchanged, nil
	}
	if err := store.Upsert(ctx, rec); err != nil {
		return 0, fmt.Errorf("upsert %s %s: %w", kind.Name, key, err)
	}
	return OutcomeUpdated, nil
}
