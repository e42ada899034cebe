package browser

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
)

// dialect describes how one browser lays out its history.
type dialect struct {
	// tables must exist for the snapshot to be readable.
	tables []string

	// query selects url, title, view time, duration and gap for every visit
	// after the bound, ordered by view time then url. The gap is computed
	// before the bound is applied so the first new visit still sees its
	// predecessor.
	query string

	// bound converts the boundary to the browser's time representation.
	bound func(time.Time) any

	// scan reads one row into a visit.
	scan func(rows *sql.Rows) (domain.Visit, error)
}

var chromeDialect = dialect{
	tables: []string{"urls", "visits"},
	query: `
		SELECT url, title, visit_time, visit_duration, gap FROM (
			SELECT u.url AS url,
			       COALESCE(u.title, '') AS title,
			       v.visit_time AS visit_time,
			       v.visit_duration AS visit_duration,
			       v.visit_time - LAG(v.visit_time) OVER (PARTITION BY u.url ORDER BY v.visit_time) AS gap
			FROM visits v
			JOIN urls u ON u.id = v.url
		)
		WHERE visit_time > ?
		ORDER BY visit_time, url`,
	bound: func(t time.Time) any { return domain.ToWebKitMicros(t) },
	scan: func(rows *sql.Rows) (domain.Visit, error) {
		var (
			v        domain.Visit
			at       int64
			duration sql.NullInt64
			gap      sql.NullInt64
		)
		if err := rows.Scan(&v.URL, &v.Title, &at, &duration, &gap); err != nil {
			return domain.Visit{}, err
		}
		viewed := domain.FromWebKitMicros(at)
		v.ViewTime = &viewed
		if duration.Valid {
			d := time.Duration(duration.Int64) * time.Microsecond
			v.Duration = &d
		}
		if gap.Valid {
			g := time.Duration(gap.Int64) * time.Microsecond
			v.Gap = &g
		}
		return v, nil
	},
}

// safariDialect has no per-visit duration. Titles live on the visit row.
var safariDialect = dialect{
	tables: []string{"history_items", "history_visits"},
	query: `
		SELECT url, title, visit_time, gap FROM (
			SELECT i.url AS url,
			       COALESCE(v.title, '') AS title,
			       v.visit_time AS visit_time,
			       v.visit_time - LAG(v.visit_time) OVER (PARTITION BY i.url ORDER BY v.visit_time) AS gap
			FROM history_visits v
			JOIN history_items i ON i.id = v.history_item
		)
		WHERE visit_time > ?
		ORDER BY visit_time, url`,
	bound: func(t time.Time) any { return domain.ToCocoaSeconds(t) },
	scan: func(rows *sql.Rows) (domain.Visit, error) {
		var (
			v   domain.Visit
			at  float64
			gap sql.NullFloat64
		)
		if err := rows.Scan(&v.URL, &v.Title, &at, &gap); err != nil {
			return domain.Visit{}, err
		}
		// Stored view times carry microseconds; drop the rest so a re-read
		// compares equal to the boundary.
		viewed := domain.FromCocoaSeconds(at).Truncate(time.Microsecond)
		v.ViewTime = &viewed
		if gap.Valid {
			g := time.Duration(gap.Float64 * float64(time.Second)).Truncate(time.Microsecond)
			v.Gap = &g
		}
		return v, nil
	},
}

func dialectFor(kind domain.BrowserKind) (dialect, error) {
	switch kind {
	case domain.BrowserChrome:
		return chromeDialect, nil
	case domain.BrowserSafari:
		return safariDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: browser kind %q", domain.ErrUnsupportedType, kind)
	}
}

// checkTables verifies the snapshot carries the dialect's tables.
func (d dialect) checkTables(ctx context.Context, db *sql.DB) error {
	var missing []string
	for _, table := range d.tables {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err == sql.ErrNoRows {
			missing = append(missing, table)
			continue
		}
		if err != nil {
			return fmt.Errorf("inspecting snapshot schema: %w", err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: snapshot lacks table(s) %s", domain.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

// readVisits returns raw visits after boundary. A nil boundary reads everything.
// The query bound sits one microsecond early and the exact cut happens on the
// scanned times, since float view times do not round trip the boundary.
func (d dialect) readVisits(ctx context.Context, db *sql.DB, boundary *domain.Boundary) ([]domain.Visit, error) {
	var bound any = int64(-1 << 62)
	if boundary != nil {
		bound = d.bound(boundary.At.Add(-time.Microsecond))
	}

	rows, err := db.QueryContext(ctx, d.query, bound)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: reading visits: %v", domain.ErrSchemaMismatch, err)
	}
	defer rows.Close()

	var visits []domain.Visit
	for rows.Next() {
		v, err := d.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning visit: %v", domain.ErrSchemaMismatch, err)
		}
		if boundary.Reached(*v.ViewTime) {
			continue
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading visits: %w", err)
	}
	return visits, nil
}
