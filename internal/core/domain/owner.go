package domain

import (
	"strconv"
	"time"
)

// Owner is a GitHub user or organisation.
type Owner struct {
	Provenance

	// ID is the numeric GitHub id and the natural key.
	ID int64

	// Login is the account handle.
	Login string

	// Type is "User" or "Organization".
	Type string

	// Name is the display name, nil when unknown.
	Name *string

	AvatarURL string
	HTMLURL   string

	// Partial marks a stub inserted to satisfy a reference, pending enrichment.
	Partial bool
}

// Key returns the natural key of the owner.
func (o *Owner) Key() string {
	return strconv.FormatInt(o.ID, 10)
}

// Repository is a GitHub repository.
type Repository struct {
	Provenance

	// ID is the numeric GitHub id and the natural key.
	ID int64

	// OwnerID references Owner.ID.
	OwnerID int64

	Name        string
	FullName    string
	Description *string
	HTMLURL     string
	Language    *string
	Private     bool
	Fork        bool

	StargazersCount int

	CreatedAt *time.Time
	PushedAt  *time.Time

	// StarredAt is when the configured user starred the repository.
	// Only the stars listing carries it, so it is preserved across upserts.
	StarredAt *time.Time

	// Partial marks a stub inserted to satisfy a reference, pending enrichment.
	Partial bool
}

// Key returns the natural key of the repository.
func (r *Repository) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// Commit is a commit authored by the configured user. Commits are immutable.
type Commit struct {
	Provenance

	// SHA is the natural key.
	SHA string

	// RepositoryID references Repository.ID.
	RepositoryID int64

	// AuthorID references Owner.ID. Nil when the author email is not linked to an account.
	AuthorID *int64

	AuthorName  string
	AuthorEmail string
	Message     string
	HTMLURL     string
	CommittedAt time.Time

	// Summary is written by an external summariser and never touched by sync.
	Summary *string
}

// Key returns the natural key of the commit.
func (c *Commit) Key() string {
	return c.SHA
}
