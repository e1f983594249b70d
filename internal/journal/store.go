// Package journal records build runs in SQLite. It backs the history command
// and incremental builds, which skip sources unchanged since their last
// successful run.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath is relative to the project directory.
const DefaultDBPath = ".xslprep/journal.db"

// File result statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Run is one build invocation
type Run struct {
	ID              string
	ProjectDir      string
	OutputDir       string
	CombinedPattern string
	StartedAt       time.Time
	FinishedAt      time.Time
	TotalFiles      int
	Succeeded       int
	Failed          int
	Skipped         int
	Success         bool
}

// FileRecord is the outcome of one source file within a run
type FileRecord struct {
	ID           int64
	RunID        string
	FileSetDir   string
	SourcePath   string
	RelPath      string
	DestPath     string
	Status       string
	Digest       string
	Lines        int
	Rewritten    int
	ErrorMessage string
	Duration     time.Duration
}

// Store manages the journal database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the journal at dbPath and migrates it.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry retries "database is locked" failures with exponential backoff.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun inserts a run and returns its generated ID.
func (s *Store) StartRun(ctx context.Context, projectDir, outputDir, combinedPattern string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_dir, output_dir, combined_pattern, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, projectDir, outputDir, combinedPattern, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordFile stores one file outcome and sets rec.ID.
func (s *Store) RecordFile(ctx context.Context, rec *FileRecord) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO file_results
		(run_id, fileset_dir, source_path, rel_path, dest_path, status, digest, lines, rewritten_lines, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.FileSetDir, rec.SourcePath, rec.RelPath, rec.DestPath, rec.Status, rec.Digest,
		rec.Lines, rec.Rewritten, rec.ErrorMessage, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert file result: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// FinishRun stores the totals of a run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total_files = ?, succeeded = ?, failed = ?, skipped = ?, success = ? WHERE id = ?`,
		time.Now().UTC(), run.TotalFiles, run.Succeeded, run.Failed, run.Skipped, run.Success, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run: unknown run %s", run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, project_dir, output_dir, combined_pattern, started_at, finished_at,
		total_files, succeeded, failed, skipped, success
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var finished sql.NullTime
		var success sql.NullBool
		if err := rows.Scan(&r.ID, &r.ProjectDir, &r.OutputDir, &r.CombinedPattern, &r.StartedAt, &finished,
			&r.TotalFiles, &r.Succeeded, &r.Failed, &r.Skipped, &success); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FinishedAt = finished.Time
		r.Success = success.Bool
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetFileResults returns the file records of one run in insertion order.
func (s *Store) GetFileResults(ctx context.Context, runID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, fileset_dir, source_path, rel_path, dest_path, status, COALESCE(digest, ''),
		lines, rewritten_lines, COALESCE(error_message, ''), duration_ms
		FROM file_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query file results: %w", err)
	}
	defer rows.Close()

	var recs []*FileRecord
	for rows.Next() {
		r := &FileRecord{}
		var ms int64
		if err := rows.Scan(&r.ID, &r.RunID, &r.FileSetDir, &r.SourcePath, &r.RelPath, &r.DestPath, &r.Status,
			&r.Digest, &r.Lines, &r.Rewritten, &r.ErrorMessage, &ms); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// LastSuccessDigest returns the digest of the newest successful result for a
// source, or "" when there is none.
func (s *Store) LastSuccessDigest(ctx context.Context, sourcePath string) (string, error) {
	var digest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT digest FROM file_results WHERE source_path = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		sourcePath, StatusSuccess).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last digest: %w", err)
	}
	return digest.String, nil
}

// Digest fingerprints everything an output file depends on: the source bytes,
// its relative path and the build settings applied to it (combined pattern,
// line ending, post-processors, compiler).
func Digest(content []byte, relPath, settings string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(relPath))
	h.Write([]byte{0})
	h.Write([]byte(settings))
	return hex.EncodeToString(h.Sum(nil))
}
