package services

import "github.com/custodia-labs/almanac/internal/core/domain"

// OwnerKind upserts owners in place; enrichment replaces stubs.
var OwnerKind = Kind[domain.Owner]{
	Name:   "owner",
	Policy: UpsertReplace,
	Key:    (*domain.Owner).Key,
}

// RepositoryKind keeps starred_at when a payload does not carry it.
var RepositoryKind = Kind[domain.Repository]{
	Name:   "repository",
	Policy: UpsertPreserveField,
	Key:    (*domain.Repository).Key,
	Preserve: func(stored, incoming *domain.Repository) {
		if incoming.StarredAt == nil && stored.StarredAt != nil {
			at := *stored.StarredAt
			incoming.StarredAt = &at
		}
	},
}

// CommitKind skips commits already stored.
var CommitKind = Kind[domain.Commit]{
	Name:   "commit",
	Policy: SkipIfExists,
	Key:    (*domain.Commit).Key,
}

// DocumentKind overwrites documents with the latest metadata.
var DocumentKind = Kind[domain.Document]{
	Name:   "document",
	Policy: UpsertReplace,
	Key:    (*domain.Document).Key,
}

// VisitKind skips episodes already stored.
var VisitKind = Kind[domain.Visit]{
	Name:   "visit",
	Policy: SkipIfExists,
	Key:    (*domain.Visit).Key,
}
