package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ExportRecord is one audit row of an SQLite snapshot.
type ExportRecord struct {
	RunID      string
	ExportedAt time.Time
	Entries    int
}

type sqliteSnapshot struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (*sqliteSnapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply busy_timeout pragma: %w", err)
	}
	snap := &sqliteSnapshot{db: db}
	if err := snap.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return snap, nil
}

func (s *sqliteSnapshot) Close() error {
	return s.db.Close()
}

func (s *sqliteSnapshot) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: snapshot has version %d, expected %d (export to a new file)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *sqliteSnapshot) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *sqliteSnapshot) load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM mappings")
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	entries := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

// replace swaps the stored mapping for entries and appends an export row.
func (s *sqliteSnapshot) replace(ctx context.Context, entries map[string]string, runID string) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM mappings"); err != nil {
		return fmt.Errorf("clear mappings: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO mappings (key, value, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for key, value := range entries {
		if _, err := stmt.ExecContext(ctx, key, value, now); err != nil {
			return fmt.Errorf("insert mapping %q: %w", key, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO exports (run_id, exported_at, entries) VALUES (?, ?, ?)",
		runID, now, len(entries),
	); err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func (s *sqliteSnapshot) exports(ctx context.Context) ([]ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT run_id, exported_at, entries FROM exports ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var (
			record ExportRecord
			raw    string
		)
		if err := rows.Scan(&record.RunID, &raw, &record.Entries); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			record.ExportedAt = ts
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
