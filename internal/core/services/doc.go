// Package services implements the driving port interfaces.
// Services contain the core sync engine and orchestrate
// calls to driven ports (adapters).
//
// The engine pieces are source-agnostic: Runner tracks runs,
// CursorStrategy derives boundaries, Paginate drives page fetches,
// Merge applies conflict policies, DependencyResolver inserts partial
// parents, OrderByAncestry and CollapseVisits shape batches.
package services
