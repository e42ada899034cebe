package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// ==================== Record Store ====================

// recordStore implements driven.RecordStore for one table.
// Each kind supplies its SQL and the column mapping.
type recordStore[T any] struct {
	store *Store
	name  string

	selectSQL string
	insertSQL string
	upsertSQL string

	keyArgs func(key string) ([]any, error)
	args    func(rec *T) []any
	scan    func(row scanner) (*T, error)
}

// Get retrieves a record by natural key.
func (s *recordStore[T]) Get(ctx context.Context, key string) (*T, error) {
	keyArgs, err := s.keyArgs(key)
	if err != nil {
		return nil, err
	}

	rec, err := s.scan(s.store.db.QueryRowContext(ctx, s.selectSQL, keyArgs...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning %s: %w", s.name, err)
	}
	return rec, nil
}

// Insert writes rec unless its key exists.
func (s *recordStore[T]) Insert(ctx context.Context, rec *T) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, s.insertSQL, s.args(rec)...)
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", s.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", s.name, err)
	}
	return n > 0, nil
}

// Upsert writes rec, replacing the columns the sync engine owns.
func (s *recordStore[T]) Upsert(ctx context.Context, rec *T) error {
	if _, err := s.store.db.ExecContext(ctx, s.upsertSQL, s.args(rec)...); err != nil {
		return fmt.Errorf("saving %s: %w", s.name, err)
	}
	return nil
}

// list runs a multi-row query through the kind's scan.
func (s *recordStore[T]) list(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.name, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", s.name, err)
	}
	return out, nil
}

func intKey(key string) ([]any, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q is not numeric", domain.ErrInvalidInput, key)
	}
	return []any{id}, nil
}

func textKey(key string) ([]any, error) {
	return []any{key}, nil
}

// visitKey splits "hostname|micros|url".
func visitKey(key string) ([]any, error) {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed visit key %q", domain.ErrInvalidInput, key)
	}
	at, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed visit key %q", domain.ErrInvalidInput, key)
	}
	return []any{parts[0], at, parts[2]}, nil
}

// ==================== Owners ====================

const ownerColumns = `id, login, type, name, avatar_url, html_url, partial, run_id`

func newOwnerStore(s *Store) *recordStore[domain.Owner] {
	return &recordStore[domain.Owner]{
		store:     s,
		name:      "owner",
		selectSQL: `SELECT ` + ownerColumns + ` FROM owners WHERE id = ?`,
		insertSQL: `INSERT INTO owners (` + ownerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
		upsertSQL: `INSERT INTO owners (` + ownerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				login = excluded.login,
				type = excluded.type,
				name = excluded.name,
				avatar_url = excluded.avatar_url,
				html_url = excluded.html_url,
				partial = excluded.partial,
				run_id = excluded.run_id`,
		keyArgs: intKey,
		args: func(o *domain.Owner) []any {
			return []any{o.ID, o.Login, o.Type, nullString(o.Name), o.AvatarURL, o.HTMLURL,
				o.Partial, runID(o.RunID)}
		},
		scan: scanOwner,
	}
}

func scanOwner(row scanner) (*domain.Owner, error) {
	var o domain.Owner
	var name, run sql.NullString
	if err := row.Scan(&o.ID, &o.Login, &o.Type, &name, &o.AvatarURL, &o.HTMLURL,
		&o.Partial, &run); err != nil {
		return nil, err
	}
	o.Name = fromNullString(name)
	o.RunID = run.String
	return &o, nil
}

// ==================== Repositories ====================

const repositoryColumns = `id, owner_id, name, full_name, description, html_url, language,
	private, fork, stargazers_count, created_at, pushed_at, starred_at, partial, run_id`

const repositoryValues = `(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func newRepositoryStore(s *Store) *recordStore[domain.Repository] {
	return &recordStore[domain.Repository]{
		store:     s,
		name:      "repository",
		selectSQL: `SELECT ` + repositoryColumns + ` FROM repositories WHERE id = ?`,
		insertSQL: `INSERT INTO repositories (` + repositoryColumns + `) VALUES ` + repositoryValues + `
			ON CONFLICT(id) DO NOTHING`,
		upsertSQL: `INSERT INTO repositories (` + repositoryColumns + `) VALUES ` + repositoryValues + `
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				name = excluded.name,
				full_name = excluded.full_name,
				description = excluded.description,
				html_url = excluded.html_url,
				language = excluded.language,
				private = excluded.private,
				fork = excluded.fork,
				stargazers_count = excluded.stargazers_count,
				created_at = excluded.created_at,
				pushed_at = excluded.pushed_at,
				starred_at = excluded.starred_at,
				partial = excluded.partial,
				run_id = excluded.run_id`,
		keyArgs: intKey,
		args: func(r *domain.Repository) []any {
			return []any{r.ID, r.OwnerID, r.Name, r.FullName, nullString(r.Description), r.HTMLURL,
				nullString(r.Language), r.Private, r.Fork, r.StargazersCount,
				micros(r.CreatedAt), micros(r.PushedAt), micros(r.StarredAt), r.Partial, runID(r.RunID)}
		},
		scan: scanRepository,
	}
}

func scanRepository(row scanner) (*domain.Repository, error) {
	var r domain.Repository
	var description, language, run sql.NullString
	var createdAt, pushedAt, starredAt sql.NullInt64
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.FullName, &description, &r.HTMLURL,
		&language, &r.Private, &r.Fork, &r.StargazersCount,
		&createdAt, &pushedAt, &starredAt, &r.Partial, &run); err != nil {
		return nil, err
	}
	r.Description = fromNullString(description)
	r.Language = fromNullString(language)
	r.CreatedAt = fromMicros(createdAt)
	r.PushedAt = fromMicros(pushedAt)
	r.StarredAt = fromMicros(starredAt)
	r.RunID = run.String
	return &r, nil
}

// ==================== Commits ====================

const commitWriteColumns = `sha, repository_id, author_id, author_name, author_email,
	message, html_url, committed_at, run_id`

func newCommitStore(s *Store) *recordStore[domain.Commit] {
	return &recordStore[domain.Commit]{
		store:     s,
		name:      "commit",
		selectSQL: `SELECT ` + commitWriteColumns + `, summary FROM commits WHERE sha = ?`,
		insertSQL: `INSERT INTO commits (` + commitWriteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sha) DO NOTHING`,
		// summary is owned by the summariser and never written here.
		upsertSQL: `INSERT INTO commits (` + commitWriteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sha) DO UPDATE SET
				repository_id = excluded.repository_id,
				author_id = excluded.author_id,
				author_name = excluded.author_name,
				author_email = excluded.author_email,
				message = excluded.message,
				html_url = excluded.html_url,
				committed_at = excluded.committed_at,
				run_id = excluded.run_id`,
		keyArgs: textKey,
		args: func(c *domain.Commit) []any {
			return []any{c.SHA, c.RepositoryID, nullInt64(c.AuthorID), c.AuthorName, c.AuthorEmail,
				c.Message, c.HTMLURL, c.CommittedAt.UnixMicro(), runID(c.RunID)}
		},
		scan: scanCommit,
	}
}

func scanCommit(row scanner) (*domain.Commit, error) {
	var c domain.Commit
	var authorID sql.NullInt64
	var committedAt int64
	var run, summary sql.NullString
	if err := row.Scan(&c.SHA, &c.RepositoryID, &authorID, &c.AuthorName, &c.AuthorEmail,
		&c.Message, &c.HTMLURL, &committedAt, &run, &summary); err != nil {
		return nil, err
	}
	c.AuthorID = fromNullInt64(authorID)
	c.CommittedAt = time.UnixMicro(committedAt).UTC()
	c.RunID = run.String
	c.Summary = fromNullString(summary)
	return &c, nil
}

// ==================== Documents ====================

const documentColumns = `id, parent_id, source_parent_id, title, mime_type, web_url,
	created_at, modified_at, run_id`

func newDocumentStore(s *Store) *recordStore[domain.Document] {
	return &recordStore[domain.Document]{
		store:     s,
		name:      "document",
		selectSQL: `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`,
		insertSQL: `INSERT INTO documents (` + documentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
		upsertSQL: `INSERT INTO documents (` + documentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				parent_id = excluded.parent_id,
				source_parent_id = excluded.source_parent_id,
				title = excluded.title,
				mime_type = excluded.mime_type,
				web_url = excluded.web_url,
				created_at = excluded.created_at,
				modified_at = excluded.modified_at,
				run_id = excluded.run_id`,
		keyArgs: textKey,
		args: func(d *domain.Document) []any {
			return []any{d.ID, nullString(d.ParentID), nullString(d.SourceParentID), d.Title,
				d.MimeType, d.WebURL, d.CreatedAt.UnixMicro(), d.ModifiedAt.UnixMicro(), runID(d.RunID)}
		},
		scan: scanDocument,
	}
}

func scanDocument(row scanner) (*domain.Document, error) {
	var d domain.Document
	var parentID, sourceParentID, run sql.NullString
	var createdAt, modifiedAt int64
	if err := row.Scan(&d.ID, &parentID, &sourceParentID, &d.Title, &d.MimeType, &d.WebURL,
		&createdAt, &modifiedAt, &run); err != nil {
		return nil, err
	}
	d.ParentID = fromNullString(parentID)
	d.SourceParentID = fromNullString(sourceParentID)
	d.CreatedAt = time.UnixMicro(createdAt).UTC()
	d.ModifiedAt = time.UnixMicro(modifiedAt).UTC()
	d.RunID = run.String
	return &d, nil
}

// ==================== Visits ====================

const visitColumns = `hostname, view_time, url, title, last_view_time,
	duration_us, gap_us, visit_count, run_id`

func newVisitStore(s *Store) *recordStore[domain.Visit] {
	return &recordStore[domain.Visit]{
		store:     s,
		name:      "visit",
		selectSQL: `SELECT ` + visitColumns + ` FROM visits WHERE hostname = ? AND view_time = ? AND url = ?`,
		insertSQL: `INSERT INTO visits (` + visitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(hostname, view_time, url) DO NOTHING`,
		upsertSQL: `INSERT INTO visits (` + visitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(hostname, view_time, url) DO UPDATE SET
				title = excluded.title,
				last_view_time = excluded.last_view_time,
				duration_us = excluded.duration_us,
				gap_us = excluded.gap_us,
				visit_count = excluded.visit_count,
				run_id = excluded.run_id`,
		keyArgs: visitKey,
		args: func(v *domain.Visit) []any {
			// A missing view time is stored as 0 so it can take part in the key.
			var viewTime int64
			if v.ViewTime != nil {
				viewTime = v.ViewTime.UnixMicro()
			}
			return []any{v.Hostname, viewTime, v.URL, v.Title, v.LastViewTime.UnixMicro(),
				durationMicros(v.Duration), durationMicros(v.Gap), v.VisitCount, runID(v.RunID)}
		},
		scan: scanVisit,
	}
}

func scanVisit(row scanner) (*domain.Visit, error) {
	var v domain.Visit
	var viewTime, lastViewTime int64
	var duration, gap sql.NullInt64
	var run sql.NullString
	if err := row.Scan(&v.Hostname, &viewTime, &v.URL, &v.Title, &lastViewTime,
		&duration, &gap, &v.VisitCount, &run); err != nil {
		return nil, err
	}
	if viewTime != 0 {
		t := time.UnixMicro(viewTime).UTC()
		v.ViewTime = &t
	}
	v.LastViewTime = time.UnixMicro(lastViewTime).UTC()
	v.Duration = fromDurationMicros(duration)
	v.Gap = fromDurationMicros(gap)
	v.RunID = run.String
	return &v, nil
}

func durationMicros(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Microseconds(), Valid: true}
}

func fromDurationMicros(v sql.NullInt64) *time.Duration {
	if !v.Valid {
		return nil
	}
	d := time.Duration(v.Int64) * time.Microsecond
	return &d
}

// ==================== Canonical Store ====================

// canonicalStore implements driven.CanonicalStore.
type canonicalStore struct {
	store        *Store
	owners       *recordStore[domain.Owner]
	repositories *recordStore[domain.Repository]
	commits      *recordStore[domain.Commit]
	documents    *recordStore[domain.Document]
	visits       *recordStore[domain.Visit]
}

var _ driven.CanonicalStore = (*canonicalStore)(nil)

func newCanonicalStore(s *Store) *canonicalStore {
	return &canonicalStore{
		store:        s,
		owners:       newOwnerStore(s),
		repositories: newRepositoryStore(s),
		commits:      newCommitStore(s),
		documents:    newDocumentStore(s),
		visits:       newVisitStore(s),
	}
}

func (s *canonicalStore) Owners() driven.RecordStore[domain.Owner] { return s.owners }

func (s *canonicalStore) Repositories() driven.RecordStore[domain.Repository] {
	return s.repositories
}

func (s *canonicalStore) Commits() driven.RecordStore[domain.Commit] { return s.commits }

func (s *canonicalStore) Documents() driven.RecordStore[domain.Document] { return s.documents }

func (s *canonicalStore) Visits() driven.RecordStore[domain.Visit] { return s.visits }

// PartialOwners returns up to limit partial owners, lowest id first.
func (s *canonicalStore) PartialOwners(ctx context.Context, limit int) ([]domain.Owner, error) {
	return s.owners.list(ctx,
		`SELECT `+ownerColumns+` FROM owners WHERE partial = 1 ORDER BY id LIMIT ?`, sqlLimit(limit))
}

// PartialRepositories returns up to limit partial repositories, lowest id first.
func (s *canonicalStore) PartialRepositories(ctx context.Context, limit int) ([]domain.Repository, error) {
	return s.repositories.list(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE partial = 1 ORDER BY id LIMIT ?`, sqlLimit(limit))
}

// sqlLimit maps a non-positive limit to SQLite's unbounded LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// MaxBoundary returns the latest stored timestamp for the scope.
func (s *canonicalStore) MaxBoundary(ctx context.Context, scope domain.Scope) (*domain.Boundary, error) {
	var query string
	var args []any

	switch scope.Integration {
	case domain.IntegrationGitHubCommits:
		query = `SELECT MAX(committed_at) FROM commits`
	case domain.IntegrationGitHubStars:
		query = `SELECT MAX(starred_at) FROM repositories`
	case domain.IntegrationGoogleDrive:
		query = `SELECT MAX(modified_at) FROM documents`
	case domain.IntegrationBrowserHistory:
		query = `SELECT MAX(last_view_time) FROM visits WHERE (? = '' OR hostname = ?)`
		args = []any{scope.Instance, scope.Instance}
	case domain.IntegrationGitHubEnrichment:
		return nil, nil
	default:
		return nil, domain.ErrUnsupportedType
	}

	var latest sql.NullInt64
	if err := s.store.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return nil, fmt.Errorf("querying boundary for %s: %w", scope.Integration, err)
	}
	at := fromMicros(latest)
	if at == nil {
		return nil, nil
	}
	return &domain.Boundary{At: *at}, nil
}
