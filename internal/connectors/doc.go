// Package connectors groups the driven.Source implementations. Each
// subpackage knows how to page through one external system and map its
// payloads to canonical records:
//
//   - github: commits, stars and enrichment of partial owners and repositories
//   - google/drive: Drive file metadata as documents
//   - browser: local Chrome or Safari history snapshots as visit episodes
//
// Sources are registered with services.SourceRegistry at startup.
package connectors
