package jobs

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"slugline/internal/config"
)

//go:embed schema.sql
var schema string

// Store manages parse job persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the parse_jobs table in the shared database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply jobs schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new pending job after checking the single-active-job rule
// inside one transaction. A pending or processing job for the same script
// causes a ConflictError carrying the blocking job's id; the unique partial
// index on active jobs backs the check under concurrent creates.
func (s *Store) Create(ctx context.Context, scriptID, userID string, selectedColumns []string) (*Job, error) {
	columnsJSON, err := json.Marshal(selectedColumns)
	if err != nil {
		return nil, fmt.Errorf("encode selected columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create job: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID int64
	err = tx.QueryRowContext(
		ctx,
		`SELECT id FROM parse_jobs
         WHERE script_id = ? AND status IN (?, ?)
         ORDER BY id LIMIT 1`,
		scriptID,
		StatusPending,
		StatusProcessing,
	).Scan(&existingID)
	switch {
	case err == nil:
		return nil, &ConflictError{ExistingJobID: existingID}
	case errors.Is(err, sql.ErrNoRows):
		// No active job; proceed.
	default:
		return nil, fmt.Errorf("check active jobs: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO parse_jobs (
            script_id, user_id, status, selected_columns, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		scriptID,
		userID,
		StatusPending,
		string(columnsJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		// The unique partial index on active jobs catches the race where
		// another create slipped in between the check and the insert.
		if isUniqueViolation(err) {
			return nil, s.activeJobConflict(ctx, scriptID, userID)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create job: %w", err)
	}

	return &Job{
		ID:              id,
		ScriptID:        scriptID,
		UserID:          userID,
		Status:          StatusPending,
		SelectedColumns: append([]string(nil), selectedColumns...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// activeJobConflict resolves the blocking job id after a unique-index hit on
// the insert path.
func (s *Store) activeJobConflict(ctx context.Context, scriptID, userID string) error {
	var existingID int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id FROM parse_jobs
         WHERE script_id = ? AND status IN (?, ?)
         ORDER BY id LIMIT 1`,
		scriptID,
		StatusPending,
		StatusProcessing,
	).Scan(&existingID)
	if err != nil {
		return fmt.Errorf("active job exists for script %s owned by %s", scriptID, userID)
	}
	return &ConflictError{ExistingJobID: existingID}
}

const jobColumns = `id, script_id, user_id, status, selected_columns,
    preview_json, full_parse_json, error_message, pages_charged,
    created_at, updated_at, started_at, completed_at`

// GetByID fetches a single job.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM parse_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return job, nil
}

// ListByUser returns a user's jobs, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM parse_jobs WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs for %s: %w", userID, err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// NextPending returns the oldest pending job, or nil when the queue is empty.
func (s *Store) NextPending(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM parse_jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		StatusPending,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending job: %w", err)
	}
	return job, nil
}

// MarkProcessing claims a pending job with a conditional update. It reports
// false when another worker already claimed it or the job left pending.
func (s *Store) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE parse_jobs SET status = ?, started_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing,
		timestamp,
		timestamp,
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark job %d processing: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark job %d processing: %w", id, err)
	}
	return affected == 1, nil
}

// SetPreview stores preview output on a job while it is still processing.
func (s *Store) SetPreview(ctx context.Context, id int64, previewJSON string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE parse_jobs SET preview_json = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		previewJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("set preview for job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set preview for job %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("set preview for job %d: job is not processing", id)
	}
	return nil
}

// Complete moves a processing job to completed with its full output and the
// pages charged against the user's quota.
func (s *Store) Complete(ctx context.Context, id int64, fullParseJSON string, pagesCharged int) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE parse_jobs SET status = ?, full_parse_json = ?, pages_charged = ?,
            completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted,
		fullParseJSON,
		pagesCharged,
		timestamp,
		timestamp,
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("complete job %d: job is not processing", id)
	}
	return nil
}

// Fail moves a processing job to failed with a human-readable reason.
func (s *Store) Fail(ctx context.Context, id int64, reason string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE parse_jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed,
		reason,
		timestamp,
		timestamp,
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("fail job %d: job is not processing", id)
	}
	return nil
}

// ReclaimStale fails processing jobs whose start is older than the timeout.
// Interrupted work is never resumed in place; the user creates a new job.
func (s *Store) ReclaimStale(ctx context.Context, timeout time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-timeout).Format(time.RFC3339Nano)
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE parse_jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		StatusFailed,
		"processing timed out",
		timestamp,
		timestamp,
		StatusProcessing,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return affected, nil
}

// Stats returns job counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM parse_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job         Job
		status      string
		columnsJSON string
		createdAt   string
		updatedAt   string
		startedAt   sql.NullString
		completedAt sql.NullString
	)
	err := row.Scan(
		&job.ID,
		&job.ScriptID,
		&job.UserID,
		&status,
		&columnsJSON,
		&job.PreviewJSON,
		&job.FullParseJSON,
		&job.ErrorMessage,
		&job.PagesCharged,
		&createdAt,
		&updatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	if err := json.Unmarshal([]byte(columnsJSON), &job.SelectedColumns); err != nil {
		return nil, fmt.Errorf("decode selected columns for job %d: %w", job.ID, err)
	}
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	if startedAt.Valid {
		ts := parseTime(startedAt.String)
		job.StartedAt = &ts
	}
	if completedAt.Valid {
		ts := parseTime(completedAt.String)
		job.CompletedAt = &ts
	}
	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
