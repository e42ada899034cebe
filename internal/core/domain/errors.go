package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown integration type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTransition indicates a run status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid run status transition")

	// Source Errors.

	// ErrAuthRequired indicates the source requires credentials but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the source rejected the configured credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrRateLimited indicates the source throttled the request.
	// Use RateLimitError to carry the advertised delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates a hard quota distinct from simple rate limiting.
	// It is fatal to the run.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrSchemaMismatch indicates a source returned data the engine cannot map.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// RateLimitError is returned by page fetchers when the source asks the
// caller to back off. It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	// Source names the integration or API that throttled.
	Source string

	// RetryAfter is the advertised delay, zero if the source gave none.
	RetryAfter time.Duration

	// ResetAt is the advertised quota reset instant, zero if unknown.
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Source, e.RetryAfter)
	}
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("%s: rate limited, resets at %s", e.Source, e.ResetAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: rate limited", e.Source)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Delay returns how long to wait before retrying relative to now.
// Zero means the source advertised nothing usable.
func (e *RateLimitError) Delay(now time.Time) time.Duration {
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	if !e.ResetAt.IsZero() && e.ResetAt.After(now) {
		return e.ResetAt.Sub(now)
	}
	return 0
}

// AsRateLimit extracts a RateLimitError from err.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
