// Package domain defines the core entities of the almanac sync engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - IntegrationRun: The audit record of one seed or sync execution
//   - Boundary and Scope: The incremental cursor derived from stored data
//   - Page: One page of items returned by a paginated source
//   - Owner, Repository, Commit, Document, Visit: Canonical records
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
