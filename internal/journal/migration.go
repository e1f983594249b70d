package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationVersion is a row of schema_version
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Build runs and per-file results",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    project_dir TEXT NOT NULL,
    output_dir TEXT NOT NULL,
    combined_pattern TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    total_files INTEGER DEFAULT 0,
    succeeded INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    success BOOLEAN
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS file_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    source_path TEXT NOT NULL,
    rel_path TEXT NOT NULL,
    dest_path TEXT NOT NULL,
    status TEXT NOT NULL,
    digest TEXT,
    lines INTEGER DEFAULT 0,
    rewritten_lines INTEGER DEFAULT 0,
    error_message TEXT,
    duration_ms INTEGER DEFAULT 0,
    recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_file_results_run ON file_results(run_id);
CREATE INDEX IF NOT EXISTS idx_file_results_source ON file_results(source_path, status);
`,
	},
	{
		Version:     2,
		Description: "Record the file-set each result came from",
		SQL: `
ALTER TABLE file_results ADD COLUMN fileset_dir TEXT DEFAULT '';
`,
	},
}

// ApplyMigrations applies every pending migration inside one transaction so
// concurrent openers serialize on it.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin exclusive transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	applied, err := appliedVersionsTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// GetAppliedVersions lists applied migrations in version order.
func (s *Store) GetAppliedVersions() ([]*MigrationVersion, error) {
	rows, err := s.db.Query(`SELECT version, applied_at FROM schema_version ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	var versions []*MigrationVersion
	for rows.Next() {
		v := &MigrationVersion{}
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetLatestVersion returns the highest applied version, 0 for a fresh database.
func (s *Store) GetLatestVersion() (int, error) {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

func appliedVersionsTx(ctx context.Context, tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
