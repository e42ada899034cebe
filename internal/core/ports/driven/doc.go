// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Source: Syncs one integration into the canonical store
//   - PageFetcher: Fetches one page of items from a paginated API
//   - RunStore: IntegrationRun persistence
//   - CanonicalStore: Canonical record persistence, one RecordStore per kind
//   - BoundaryStore: Incremental cursor lookup over stored records
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
