package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const runColumns = `id, query, started_at, finished_at, status, message_count,
	error_count, phone_count, truncated, output_path, failure`

// CreateRun inserts a new run in the running state
func (db *DB) CreateRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.Status = RunStatusRunning

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, query, started_at, status)
		VALUES (?, ?, ?, ?)
	`, r.ID, r.Query, r.StartedAt, r.Status)
	return err
}

// FinishRun stores the final counters and status of a run
func (db *DB) FinishRun(ctx context.Context, r *Run) error {
	now := time.Now()
	r.FinishedAt = &now

	_, err := db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?, status = ?, message_count = ?, error_count = ?,
			phone_count = ?, truncated = ?, output_path = ?, failure = ?
		WHERE id = ?
	`,
		r.FinishedAt, r.Status, r.MessageCount, r.ErrorCount,
		r.PhoneCount, r.Truncated, NullString(r.OutputPath), NullString(r.Failure),
		r.ID,
	)
	return err
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	r := &Run{}
	var finishedAt sql.NullTime
	var outputPath, failure sql.NullString

	err := s.Scan(
		&r.ID, &r.Query, &r.StartedAt, &finishedAt, &r.Status, &r.MessageCount,
		&r.ErrorCount, &r.PhoneCount, &r.Truncated, &outputPath, &failure,
	)
	if err != nil {
		return nil, err
	}

	r.FinishedAt = TimePtr(finishedAt)
	r.OutputPath = StringPtr(outputPath)
	r.Failure = StringPtr(failure)
	return r, nil
}
