package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		reference TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		failures INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);

	CREATE TABLE IF NOT EXISTS scan_results (
		scan_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		path TEXT NOT NULL,
		directory TEXT NOT NULL,
		file_name TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (scan_id, rank),
		FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_scan_results_scan_id ON scan_results(scan_id);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveScan inserts a scan and its results in a single transaction.
func (s *SQLiteStore) SaveScan(ctx context.Context, rec *ScanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, root, reference, status, started_at, finished_at, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Root, rec.Reference, string(rec.Status), rec.StartedAt, rec.FinishedAt, rec.Failures,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	for _, r := range rec.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scan_results (scan_id, rank, path, directory, file_name, score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, r.Rank, r.Path, r.Directory, r.FileName, r.Score,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}
	return tx.Commit()
}

// GetScan returns a scan with its results, ordered by rank.
func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	rec := &ScanRecord{}
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, root, reference, status, started_at, finished_at, failures FROM scans WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Root, &rec.Reference, &status, &rec.StartedAt, &rec.FinishedAt, &rec.Failures)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	rec.Status = models.ScanStatus(status)

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, path, directory, file_name, score FROM scan_results WHERE scan_id = ? ORDER BY rank`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r := &models.ScoreResult{}
		if err := rows.Scan(&r.Rank, &r.Path, &r.Directory, &r.FileName, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		rec.Results = append(rec.Results, r)
	}
	return rec, rows.Err()
}

// ListScans returns up to limit scan summaries, newest first.
func (s *SQLiteStore) ListScans(ctx context.Context, limit int) ([]*ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, reference, status, started_at, finished_at, failures
		 FROM scans ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var out []*ScanRecord
	for rows.Next() {
		rec := &ScanRecord{}
		var status string
		if err := rows.Scan(&rec.ID, &rec.Root, &rec.Reference, &status, &rec.StartedAt, &rec.FinishedAt, &rec.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Status = models.ScanStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
