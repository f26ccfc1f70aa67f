package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/ytmigrate/internal/models"
)

// ErrRunNotFound is returned when no journaled run has the requested id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	id, source_ref, source_id, destination_name, destination_id,
	total, resolved, unresolved, added, state, error, started_at, finished_at
`

// RunRepository records one row per transfer run.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run record. Records are written once, when the run finishes.
func (r *RunRepository) Create(ctx context.Context, rec models.RunRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SourceRef,
		rec.SourceID,
		rec.DestinationName,
		rec.DestinationID,
		rec.Total,
		rec.Resolved,
		rec.Unresolved,
		rec.Added,
		rec.State,
		rec.Error,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Save journals a finished transfer outcome.
func (r *RunRepository) Save(ctx context.Context, o *models.TransferOutcome) error {
	if o == nil {
		return fmt.Errorf("validation failed: nil outcome")
	}
	return r.Create(ctx, o.Record())
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	rec, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List retrieves the most recent runs, newest first. A limit of zero or less returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Count returns how many runs are journaled.
func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row from [sql.Row] or [sql.Rows] into a [models.RunRecord]
func scanRun(s scanner) (*models.RunRecord, error) {
	var rec models.RunRecord
	err := s.Scan(
		&rec.ID, &rec.SourceRef, &rec.SourceID, &rec.DestinationName, &rec.DestinationID,
		&rec.Total, &rec.Resolved, &rec.Unresolved, &rec.Added, &rec.State, &rec.Error,
		&rec.StartedAt, &rec.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &rec, nil
}
