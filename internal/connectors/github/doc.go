// Package github implements the GitHub sources of the sync engine.
//
// Three sources share one API client:
//
//   - CommitsSource (github_commits): commits authored by the configured login,
//     found through the commit search API sorted by committer date.
//   - StarsSource (github_stars): repositories starred by the authenticated user,
//     listed most recently starred first.
//   - EnrichmentSource (github_enrichment): replaces partial owners and
//     repositories inserted by the other two with full payloads.
//
// # Incremental Sync
//
// Commits and stars are listed newest first. A sync run reads the latest
// stored committed_at or starred_at once at start and stops paging at the
// first item at or before it. A seed run ignores the stored boundary.
//
// # Dependencies
//
// Commits reference a repository, its owner and optionally an author account;
// stars reference the repository owner. Missing parents are inserted as
// partial stubs from the payload at hand. Enrichment later fetches them by id
// with bounded concurrency and clears the partial flag. Accounts or
// repositories GitHub no longer returns are marked complete as they stand.
//
// # Rate Limiting
//
// The client throttles proactively at about 1.2 requests per second and
// watches X-RateLimit-Remaining, pausing until X-RateLimit-Reset when the
// quota runs low. When GitHub refuses a request anyway, the error is mapped
// to a domain.RateLimitError carrying the reset time or Retry-After delay,
// and the fetch executor retries the same page after that delay.
//
// # Error Handling
//
//   - Rate limit errors: retried by the fetch executor
//   - Authentication errors: reported as [domain.ErrAuthInvalid], failing the run
//   - Malformed items and store failures: logged and skipped, the run continues
package github
