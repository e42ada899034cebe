// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - RunStore: IntegrationRun audit records
//   - CanonicalStore: Owners, repositories, commits, documents and visits
//   - BoundaryStore: Incremental cursors computed from stored records
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Canonical timestamps are INTEGER unix microseconds; run timestamps are DATETIME.
// Every canonical row carries a run_id that is set to NULL, never cascaded,
// if its run disappears.
//
// # Data Location
//
// By default, the database is stored at ~/.almanac/data/almanac.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Each write commits on its own; there is no transaction
// spanning a run.
package sqlite
