package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

// SQLiteStore keeps reports in a single SQLite database. The full report is
// stored as JSON; the filterable fields are duplicated into columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		target_url TEXT NOT NULL,
		scan_type TEXT NOT NULL,
		status TEXT NOT NULL,
		scan_date INTEGER NOT NULL,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_scan_date ON reports(scan_date);
	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces the report.
func (s *SQLiteStore) Save(ctx context.Context, r *report.ScanReport) error {
	if err := checkID(r.ID); err != nil {
		return err
	}
	data, err := jsonutil.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", r.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, target_url, scan_type, status, scan_date, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target_url = excluded.target_url,
			scan_type = excluded.scan_type,
			status = excluded.status,
			scan_date = excluded.scan_date,
			data = excluded.data,
			updated_at = excluded.updated_at
	`,
		r.ID, r.TargetURL, r.ScanType, string(r.ReportStatus),
		r.ScanDate.UnixNano(), string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("history: save %s: %w", r.ID, err)
	}
	return nil
}

// Get returns one report.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*report.ScanReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reports WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history: get %s: %w", id, err)
	}
	return decodeRow(id, data)
}

func decodeRow(id, data string) (*report.ScanReport, error) {
	var r report.ScanReport
	if err := jsonutil.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", id, err)
	}
	return &r, nil
}

// List narrows by status in SQL and applies the rest of the filter in Go,
// so both backends share one definition of matching.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*report.ScanReport, error) {
	query := `SELECT id, data FROM reports`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ? COLLATE NOCASE`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY scan_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []*report.ScanReport
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		r, err := decodeRow(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return f.apply(out), nil
}

// Delete removes one report.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("history: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
