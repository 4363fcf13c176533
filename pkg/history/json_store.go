package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

// JSONStore keeps reports as JSON files under a directory, with an index
// for listing without opening every file.
type JSONStore struct {
	mu       sync.RWMutex
	basePath string
	index    *storeIndex
}

// storeIndex tracks all stored reports for quick lookup.
type storeIndex struct {
	Reports map[string]*indexEntry `json:"reports"`
}

// indexEntry carries the fields List filters and sorts on.
type indexEntry struct {
	ID        string        `json:"id"`
	TargetURL string        `json:"target_url"`
	ScanType  string        `json:"scan_type"`
	ScanDate  time.Time     `json:"scan_date"`
	Status    report.Status `json:"status"`
}

func entryFor(r *report.ScanReport) *indexEntry {
	return &indexEntry{
		ID:        r.ID,
		TargetURL: r.TargetURL,
		ScanType:  r.ScanType,
		ScanDate:  r.ScanDate,
		Status:    r.ReportStatus,
	}
}

// stub returns a report carrying only the indexed fields, enough for Filter.Match.
func (e *indexEntry) stub() *report.ScanReport {
	return &report.ScanReport{
		ID:           e.ID,
		TargetURL:    e.TargetURL,
		ScanType:     e.ScanType,
		ScanDate:     e.ScanDate,
		ReportStatus: e.Status,
	}
}

// NewJSONStore creates a store at the specified directory.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "reports"), 0o755); err != nil {
		return nil, fmt.Errorf("history: create store directory: %w", err)
	}

	s := &JSONStore{
		basePath: basePath,
		index:    &storeIndex{Reports: make(map[string]*indexEntry)},
	}

	if err := s.loadIndex(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("history: load index: %w", err)
	}
	if s.index.Reports == nil {
		s.index.Reports = make(map[string]*indexEntry)
	}
	return s, nil
}

func (s *JSONStore) indexPath() string {
	return filepath.Join(s.basePath, "index.json")
}

func (s *JSONStore) reportPath(id string) string {
	return filepath.Join(s.basePath, "reports", id+".json")
}

func (s *JSONStore) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return err
	}
	return jsonutil.Unmarshal(data, s.index)
}

// writeAtomic writes to a temporary file first, then renames it into place.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *JSONStore) saveIndex() error {
	data, err := jsonutil.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.indexPath(), data)
}

// Save writes the report file and then the index.
func (s *JSONStore) Save(ctx context.Context, r *report.ScanReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(r.ID); err != nil {
		return err
	}

	data, err := jsonutil.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.reportPath(r.ID), data); err != nil {
		return fmt.Errorf("history: write %s: %w", r.ID, err)
	}
	s.index.Reports[r.ID] = entryFor(r)
	if err := s.saveIndex(); err != nil {
		return fmt.Errorf("history: write index: %w", err)
	}
	return nil
}

// Get reads a report by id.
func (s *JSONStore) Get(ctx context.Context, id string) (*report.ScanReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.index.Reports[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.read(id)
}

func (s *JSONStore) read(id string) (*report.ScanReport, error) {
	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("history: read %s: %w", id, err)
	}
	var r report.ScanReport
	if err := jsonutil.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", id, err)
	}
	return &r, nil
}

// List filters on the index and only opens the files it returns.
func (s *JSONStore) List(ctx context.Context, f Filter) ([]*report.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stubs := make([]*report.ScanReport, 0, len(s.index.Reports))
	for _, e := range s.index.Reports {
		stubs = append(stubs, e.stub())
	}
	stubs = f.apply(stubs)

	out := make([]*report.ScanReport, 0, len(stubs))
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.read(stub.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes a report file and its index entry.
func (s *JSONStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Reports[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.index.Reports, id)
	if err := s.saveIndex(); err != nil {
		return fmt.Errorf("history: write index: %w", err)
	}
	if err := os.Remove(s.reportPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("history: remove %s: %w", id, err)
	}
	return nil
}

// Close is a no-op for file-based storage.
func (s *JSONStore) Close() error {
	return nil
}
