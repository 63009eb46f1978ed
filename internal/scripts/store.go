package scripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"slugline/internal/config"
)

// ErrNotFound indicates no script exists for the requested id.
var ErrNotFound = errors.New("script not found")

const schema = `
CREATE TABLE IF NOT EXISTS scripts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    file_type TEXT NOT NULL,
    file_size INTEGER NOT NULL,
    page_count INTEGER NOT NULL,
    fingerprint TEXT NOT NULL,
    owner_user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scripts_owner ON scripts(owner_user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scripts_fingerprint ON scripts(owner_user_id, fingerprint);
`

// Store manages script persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the script table in the shared database.
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
		return nil, fmt.Errorf("apply scripts schema: %w", err)
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

// Save persists a new script. Script rows are immutable; saving an existing
// id is an error.
func (s *Store) Save(ctx context.Context, script *Script) error {
	if script == nil {
		return errors.New("nil script")
	}
	if script.CreatedAt.IsZero() {
		script.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scripts (
            id, title, file_type, file_size, page_count,
            fingerprint, owner_user_id, content, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		script.ID,
		script.Title,
		string(script.FileType),
		script.FileSize,
		script.PageCount,
		script.Fingerprint,
		script.OwnerUserID,
		script.Content,
		script.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert script %s: %w", script.ID, err)
	}
	return nil
}

// GetByID fetches a single script, content included.
func (s *Store) GetByID(ctx context.Context, id string) (*Script, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, file_type, file_size, page_count,
                fingerprint, owner_user_id, content, created_at
         FROM scripts WHERE id = ?`,
		id,
	)
	script, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script %s: %w", id, err)
	}
	return script, nil
}

// ListByOwner returns an owner's scripts, newest first, without content.
func (s *Store) ListByOwner(ctx context.Context, ownerUserID string) ([]*Script, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, file_type, file_size, page_count,
                fingerprint, owner_user_id, '', created_at
         FROM scripts WHERE owner_user_id = ?
         ORDER BY created_at DESC, id`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scripts for %s: %w", ownerUserID, err)
	}
	defer rows.Close()

	var scripts []*Script
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, fmt.Errorf("scan script row: %w", err)
		}
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

// FindByFingerprint reports a prior upload of identical content by the same
// owner, or nil when none exists.
func (s *Store) FindByFingerprint(ctx context.Context, ownerUserID, fingerprint string) (*Script, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, file_type, file_size, page_count,
                fingerprint, owner_user_id, '', created_at
         FROM scripts WHERE owner_user_id = ? AND fingerprint = ?
         ORDER BY created_at LIMIT 1`,
		ownerUserID,
		fingerprint,
	)
	script, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find script by fingerprint: %w", err)
	}
	return script, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScript(row rowScanner) (*Script, error) {
	var (
		script    Script
		fileType  string
		createdAt string
	)
	err := row.Scan(
		&script.ID,
		&script.Title,
		&fileType,
		&script.FileSize,
		&script.PageCount,
		&script.Fingerprint,
		&script.OwnerUserID,
		&script.Content,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	script.FileType = FileType(fileType)
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
		script.CreatedAt = ts
	}
	return &script, nil
}
