package domain

import "time"

// Scope selects the stored records a boundary is computed over.
type Scope struct {
	// Integration is the integration whose records are scanned.
	Integration IntegrationType

	// Instance optionally narrows the scan to one source instance,
	// for example the hostname of a browser history snapshot.
	Instance string
}

// Boundary is the point of already ingested data for an incremental sync.
// A nil *Boundary means no data has been ingested yet.
type Boundary struct {
	// At is the latest stored timestamp for the scope.
	At time.Time
}

// Reached reports whether an item stamped t lies at or before the boundary,
// and is therefore already ingested. A nil boundary is never reached.
func (b *Boundary) Reached(t time.Time) bool {
	if b == nil {
		return false
	}
	return !t.After(b.At)
}

// String returns the boundary in RFC 3339, or "none" when absent.
func (b *Boundary) String() string {
	if b == nil {
		return "none"
	}
	return b.At.UTC().Format(time.RFC3339Nano)
}

// Page is one page of items from a paginated source.
type Page[T any] struct {
	// Items are in the order the source returned them.
	Items []T

	// NextToken is the continuation token. Empty means this was the last page.
	NextToken string
}

// Provenance records which run created or last touched a canonical record.
// It is ignored when comparing records for change detection.
type Provenance struct {
	RunID string
}
