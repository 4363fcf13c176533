// Package history persists scan reports between runs.
//
// Two backends implement Store: JSONStore keeps an index plus one JSON file
// per report, SQLiteStore keeps everything in a single SQLite database.
// Both return copies, so callers may mutate what they get back.
package history

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/waftester/scanreport/pkg/report"
)

// Store is the persistence collaborator used by the orchestrator and the
// report service.
type Store interface {
	// Save appends r, or replaces the stored report with the same id.
	Save(ctx context.Context, r *report.ScanReport) error
	// Get returns the report with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*report.ScanReport, error)
	// List returns the reports matching f, newest first.
	List(ctx context.Context, f Filter) ([]*report.ScanReport, error)
	// Delete removes the report with the given id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend rooted at path. For the json backend
// path is a directory; for sqlite it is the database file.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Type is a profile name ("quick"), "imported report", or "all".
	Type string
	// Status is Draft or Finalized.
	Status report.Status
	// Search is a case-insensitive substring of the target URL or id.
	Search string
	// Limit caps the number of results when positive.
	Limit int
}

// Match reports whether r passes the filter, ignoring Limit.
func (f Filter) Match(r *report.ScanReport) bool {
	if t := strings.ToLower(strings.TrimSpace(f.Type)); t != "" && t != "all" && r.TypeKey() != t {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(r.ReportStatus), string(f.Status)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(r.TargetURL), q) && !strings.Contains(strings.ToLower(r.ID), q) {
			return false
		}
	}
	return true
}

// apply filters, sorts newest first and truncates reports in place.
func (f Filter) apply(reports []*report.ScanReport) []*report.ScanReport {
	out := reports[:0]
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func sortNewestFirst(reports []*report.ScanReport) {
	slices.SortStableFunc(reports, func(a, b *report.ScanReport) int {
		if c := b.ScanDate.Compare(a.ScanDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// checkID rejects ids that could escape the store directory.
func checkID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
