package github

import (
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// mapOwner converts a GitHub user payload. Search and list payloads carry
// only the summary fields, so the caller decides whether the result is partial.
func mapOwner(u *gh.User, runID string) (domain.Owner, error) {
	if u == nil || u.GetID() == 0 || u.GetLogin() == "" {
		return domain.Owner{}, fmt.Errorf("%w: owner without id or login", domain.ErrSchemaMismatch)
	}
	return domain.Owner{
		Provenance: domain.Provenance{RunID: runID},
		ID:         u.GetID(),
		Login:      u.GetLogin(),
		Type:       u.GetType(),
		Name:       u.Name,
		AvatarURL:  u.GetAvatarURL(),
		HTMLURL:    u.GetHTMLURL(),
	}, nil
}

// mapRepository converts a GitHub repository payload.
func mapRepository(r *gh.Repository, runID string) (domain.Repository, error) {
	if r == nil || r.GetID() == 0 {
		return domain.Repository{}, fmt.Errorf("%w: repository without id", domain.ErrSchemaMismatch)
	}
	if r.GetOwner().GetID() == 0 {
		return domain.Repository{}, fmt.Errorf("%w: repository %d without owner", domain.ErrSchemaMismatch, r.GetID())
	}
	return domain.Repository{
		Provenance:      domain.Provenance{RunID: runID},
		ID:              r.GetID(),
		OwnerID:         r.GetOwner().GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.Description,
		HTMLURL:         r.GetHTMLURL(),
		Language:        r.Language,
		Private:         r.GetPrivate(),
		Fork:            r.GetFork(),
		StargazersCount: r.GetStargazersCount(),
		CreatedAt:       timestamp(r.CreatedAt),
		PushedAt:        timestamp(r.PushedAt),
	}, nil
}

// mapCommit converts a commit search result.
// The commit author is linked only when GitHub matched the email to an account.
func mapCommit(c *gh.CommitResult, runID string) (domain.Commit, error) {
	if c == nil || c.GetSHA() == "" {
		return domain.Commit{}, fmt.Errorf("%w: commit without sha", domain.ErrSchemaMismatch)
	}
	if c.GetRepository().GetID() == 0 {
		return domain.Commit{}, fmt.Errorf("%w: commit %s without repository", domain.ErrSchemaMismatch, c.GetSHA())
	}
	committed := committedAt(c)
	if committed == nil {
		return domain.Commit{}, fmt.Errorf("%w: commit %s without committer date", domain.ErrSchemaMismatch, c.GetSHA())
	}

	commit := domain.Commit{
		Provenance:   domain.Provenance{RunID: runID},
		SHA:          c.GetSHA(),
		RepositoryID: c.GetRepository().GetID(),
		AuthorName:   c.GetCommit().GetAuthor().GetName(),
		AuthorEmail:  c.GetCommit().GetAuthor().GetEmail(),
		Message:      c.GetCommit().GetMessage(),
		HTMLURL:      c.GetHTMLURL(),
		CommittedAt:  *committed,
	}
	if id := c.GetAuthor().GetID(); id != 0 {
		commit.AuthorID = &id
	}
	return commit, nil
}

// committedAt returns the committer date the search sorts by.
func committedAt(c *gh.CommitResult) *time.Time {
	date := c.GetCommit().GetCommitter().GetDate()
	return timestamp(&date)
}

func timestamp(ts *gh.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.UTC()
	return &t
}
