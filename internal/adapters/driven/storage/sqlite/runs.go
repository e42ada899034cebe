package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/almanac/internal/core/domain"
	"github.com/custodia-labs/almanac/internal/core/ports/driven"
)

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, integration, run_type, status, started_at, ended_at, message, entries_created`

// Create inserts a new in-progress run.
func (s *runStore) Create(ctx context.Context, run *domain.IntegrationRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO integration_runs (id, integration, run_type, status, started_at, entries_created)
		VALUES (?, ?, ?, ?, ?, 0)
	`, run.ID, string(run.Integration), string(run.RunType), string(domain.RunStatusInProgress),
		run.StartedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("run %s: %w", run.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

// Complete applies the terminal write. The status guard in the WHERE clause
// makes a second completion a no-op that is reported as a transition error.
func (s *runStore) Complete(ctx context.Context, id string, c domain.RunCompletion) error {
	if !c.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is not terminal", domain.ErrInvalidTransition, c.Status)
	}
	created := 0
	if c.Status == domain.RunStatusSuccess {
		created = c.EntriesCreated
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE integration_runs
		SET status = ?, ended_at = ?, message = ?, entries_created = ?
		WHERE id = ? AND status = ?
	`, string(c.Status), c.EndedAt.UTC(), nullString(c.Message), created,
		id, string(domain.RunStatusInProgress))
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}
	if n == 1 {
		return nil
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: run %s is already %s", domain.ErrInvalidTransition, id, existing.Status)
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.IntegrationRun, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM integration_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// List returns runs newest first.
func (s *runStore) List(ctx context.Context, filter domain.RunFilter) ([]domain.IntegrationRun, error) {
	query := `SELECT ` + runColumns + ` FROM integration_runs WHERE 1 = 1`
	var args []any
	if filter.Integration != "" {
		query += ` AND integration = ?`
		args = append(args, string(filter.Integration))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IntegrationRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// SweepOrphans fails every in-progress run started before cutoff.
func (s *runStore) SweepOrphans(ctx context.Context, cutoff, endedAt time.Time, message string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE integration_runs
		SET status = ?, ended_at = ?, message = ?, entries_created = 0
		WHERE status = ? AND started_at < ?
	`, string(domain.RunStatusFail), endedAt.UTC(), message,
		string(domain.RunStatusInProgress), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweeping orphaned runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweeping orphaned runs: %w", err)
	}
	return int(n), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.IntegrationRun, error) {
	var run domain.IntegrationRun
	var integration, runType, status string
	var endedAt sql.NullTime
	var message sql.NullString
	if err := row.Scan(&run.ID, &integration, &runType, &status,
		&run.StartedAt, &endedAt, &message, &run.EntriesCreated); err != nil {
		return nil, err
	}

	run.Integration = domain.IntegrationType(integration)
	run.RunType = domain.RunType(runType)
	run.Status = domain.RunStatus(status)
	run.StartedAt = run.StartedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		run.EndedAt = &t
	}
	run.Message = fromNullString(message)
	return &run, nil
}
