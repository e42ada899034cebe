package drive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/almanac/internal/connectors/google"
	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
	"github.com/custodia-labs/almanac/internal/core/services"
	"github.com/custodia-labs/almanac/internal/logger"
)

// MimeTypeFolder is the MIME type of a Drive folder.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// fileFields is the partial response requested from files.list.
const fileFields = "nextPageToken, files(id, name, mimeType, parents, webViewLink, createdTime, modifiedTime)"

// Config holds the Drive source settings.
type Config struct {
	// FolderID optionally limits the sync to direct children of one folder.
	FolderID string

	// PageSize is the files.list page size.
	PageSize int64
}

// Source syncs Drive file metadata into documents.
type Source struct {
	svc      *drive.Service
	store    driven.CanonicalStore
	exec     *services.FetchExecutor
	cursor   *services.CursorStrategy
	resolver *services.DependencyResolver
	cfg      Config
}

var _ driven.Source = (*Source)(nil)

// New creates the google_drive source.
func New(svc *drive.Service, store driven.CanonicalStore, exec *services.FetchExecutor, cfg Config) *Source {
	if cfg.PageSize <= 0 {
		cfg.PageSize = domain.DefaultPageSize
	}
	return &Source{
		svc:      svc,
		store:    store,
		exec:     exec,
		cursor:   services.NewCursorStrategy(store),
		resolver: services.NewDependencyResolver(store),
		cfg:      cfg,
	}
}

// Integration returns google_drive.
func (s *Source) Integration() domain.IntegrationType {
	return domain.IntegrationGoogleDrive
}

// Sync lists files modified after the stored boundary, newest first.
// The whole listing forms one batch: it is ordered so folders precede their
// contents, parent links are resolved, then each document is upserted.
func (s *Source) Sync(ctx context.Context, req driven.SyncRequest) (int, error) {
	boundary, err := s.cursor.Boundary(ctx, domain.Scope{Integration: s.Integration()}, req.RunType)
	if err != nil {
		return 0, err
	}
	query := listQuery(boundary, s.cfg.FolderID)
	logger.Debug("google_drive: files.list q=%q", query)

	fetcher := driven.PageFetcherFunc[*drive.File](func(ctx context.Context, token string) (domain.Page[*drive.File], error) {
		call := s.svc.Files.List().
			Q(query).
			OrderBy("modifiedTime desc").
			PageSize(s.cfg.PageSize).
			Fields(fileFields).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		list, err := call.Do()
		if err != nil {
			return domain.Page[*drive.File]{}, google.WrapError(err)
		}
		return domain.Page[*drive.File]{Items: list.Files, NextToken: list.NextPageToken}, nil
	})

	opts := services.FetchOptions[*drive.File]{
		Reached: func(f *drive.File) bool {
			modified, err := parseTime(f.ModifiedTime)
			return err == nil && boundary.Reached(modified)
		},
	}

	var batch []domain.Document
	stats, err := services.Paginate(ctx, s.exec, fetcher, opts, func(ctx context.Context, files []*drive.File) error {
		for _, f := range files {
			doc, err := mapFile(f, req.RunID)
			if err != nil {
				logger.Warn("google_drive: skipping file %s: %v", f.Id, err)
				continue
			}
			batch = append(batch, doc)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("google_drive: %d pages, %d files listed", stats.Pages, len(batch))

	return s.writeBatch(ctx, batch)
}

// writeBatch orders the batch by ancestry and upserts it.
func (s *Source) writeBatch(ctx context.Context, batch []domain.Document) (int, error) {
	ordered := services.OrderByAncestry(batch,
		func(d domain.Document) string { return d.ID },
		func(d domain.Document) string { return d.ParentKey() },
		func(d domain.Document) time.Time { return d.CreatedAt },
	)

	inBatch := make(map[string]bool, len(ordered))
	for _, d := range ordered {
		inBatch[d.ID] = true
	}

	created := 0
	for i := range ordered {
		doc := &ordered[i]
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if err := s.resolver.ResolveParent(ctx, doc, inBatch); err != nil {
			logger.Warn("google_drive: skipping document %s: %v", doc.ID, err)
			delete(inBatch, doc.ID)
			continue
		}
		outcome, err := services.Merge(ctx, s.store.Documents(), services.DocumentKind, doc)
		if err != nil {
			logger.Warn("google_drive: skipping document %s: %v", doc.ID, err)
			// Children must not link to a row that was never written.
			delete(inBatch, doc.ID)
			continue
		}
		if outcome == services.OutcomeCreated {
			created++
		}
	}
	return created, nil
}

// listQuery builds the files.list query.
func listQuery(boundary *domain.Boundary, folderID string) string {
	clauses := []string{"trashed = false"}
	if boundary != nil {
		clauses = append(clauses, fmt.Sprintf("modifiedTime > '%s'", boundary.At.UTC().Format("2006-01-02T15:04:05.000Z07:00")))
	}
	if folderID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", strings.ReplaceAll(folderID, "'", `\'`)))
	}
	return strings.Join(clauses, " and ")
}

// mapFile converts a Drive file. The first parent is the source parent.
func mapFile(f *drive.File, runID string) (domain.Document, error) {
	if f == nil || f.Id == "" {
		return domain.Document{}, fmt.Errorf("%w: file without id", domain.ErrSchemaMismatch)
	}
	created, err := parseTime(f.CreatedTime)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: createdTime: %v", domain.ErrSchemaMismatch, err)
	}
	modified, err := parseTime(f.ModifiedTime)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: modifiedTime: %v", domain.ErrSchemaMismatch, err)
	}

	doc := domain.Document{
		Provenance: domain.Provenance{RunID: runID},
		ID:         f.Id,
		Title:      f.Name,
		MimeType:   f.MimeType,
		WebURL:     f.WebViewLink,
		CreatedAt:  created,
		ModifiedAt: modified,
	}
	if len(f.Parents) > 0 && f.Parents[0] != "" {
		parent := f.Parents[0]
		doc.SourceParentID = &parent
	}
	return doc, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
