package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// SQLiteStore persists run reports in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path, normally
// <project>/.vitals/history/history.db.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		project_root TEXT,
		mode TEXT,
		overall_status TEXT,
		total INTEGER,
		passed INTEGER,
		warnings INTEGER,
		failed INTEGER,
		errors INTEGER,
		auto_fixed INTEGER,
		duration_ms INTEGER,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS runs_timestamp ON runs(timestamp);`)
	return err
}

// Save inserts a run. Saving the same run id twice replaces the earlier row.
func (s *SQLiteStore) Save(ctx context.Context, report domain.HealthReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	rec := domain.NewHistoryRecord(report)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_id, timestamp, project_root, mode, overall_status, total, passed, warnings, failed, errors, auto_fixed, duration_ms, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Timestamp.UnixNano(),
		rec.ProjectRoot,
		string(rec.Mode),
		string(rec.OverallStatus),
		rec.Total,
		rec.Passed,
		rec.Warnings,
		rec.Failed,
		rec.Errors,
		rec.AutoFixed,
		rec.DurationMS,
		string(payload),
	)
	return err
}

// List returns run summaries, newest first. limit <= 0 returns everything.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	query := `SELECT run_id, timestamp, project_root, mode, overall_status, total, passed, warnings, failed, errors, auto_fixed, duration_ms
		FROM runs ORDER BY timestamp DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var ts int64
		var mode, status string
		if err := rows.Scan(&rec.RunID, &ts, &rec.ProjectRoot, &mode, &status, &rec.Total, &rec.Passed,
			&rec.Warnings, &rec.Failed, &rec.Errors, &rec.AutoFixed, &rec.DurationMS); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(0, ts)
		rec.Mode = domain.RunMode(mode)
		rec.OverallStatus = domain.Status(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Load returns the full report of a run.
func (s *SQLiteStore) Load(ctx context.Context, runID string) (domain.HealthReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM runs WHERE run_id = ?", runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HealthReport{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	if err != nil {
		return domain.HealthReport{}, err
	}
	var report domain.HealthReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return domain.HealthReport{}, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return report, nil
}

// Prune deletes runs started before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE timestamp < ?", olderThan.UnixNano())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Clear deletes all runs.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs")
	return err
}

// ExportJSON writes every stored report to a jsonl file.
func (s *SQLiteStore) ExportJSON(ctx context.Context, dest string) error {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM runs ORDER BY timestamp ASC")
	if err != nil {
		return err
	}
	defer rows.Close()

	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		if _, err := file.WriteString(payload + "\n"); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.ReportStore = (*SQLiteStore)(nil)
