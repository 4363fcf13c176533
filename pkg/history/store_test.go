package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
)

var baseDate = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeReport(id, target string, profile report.Profile, age int) *report.ScanReport {
	vulns := []finding.Vulnerability{{
		ID:          "VULN-H-1",
		Name:        "Cross-Site Scripting (XSS)",
		Severity:    finding.High,
		Location:    target + "/search?q=test",
		Description: "d",
		Remediation: "r",
	}}
	return &report.ScanReport{
		SchemaVersion:      report.SchemaVersion,
		ID:                 id,
		TargetURL:          target,
		ScanType:           profile.Label(),
		ScanDate:           baseDate.Add(-time.Duration(age) * time.Hour),
		ScanTime:           321,
		ToolsUsed:          []string{"OWASP ZAP", "Nmap"},
		Vulnerabilities:    vulns,
		PortScan:           []finding.PortFinding{{Port: 80, Service: "http", State: finding.PortOpen, Version: "Apache httpd 2.4.41"}},
		SecurityHeaders:    []finding.SecurityHeader{{Name: "Content-Security-Policy", Description: "d", Recommendation: "r"}},
		SuccessfulPayloads: []string{"' OR 1=1 --"},
		Summary:            report.Summarize(vulns),
		Editable:           true,
		ReportStatus:       report.StatusDraft,
	}
}

// backends runs fn once per Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("json", func(t *testing.T) {
		t.Parallel()
		s, err := NewJSONStore(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reports.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestSaveGetRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := makeReport("REP-123", "https://example.com", report.Quick, 0)
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Get(ctx, "REP-123")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestSaveReplacesByID(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		r := makeReport("REP-1", "https://a.example", report.Quick, 0)
		require.NoError(t, s.Save(ctx, r))

		r.TargetURL = "Renamed"
		require.NoError(t, s.Save(ctx, r))

		all, err := s.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Renamed", all[0].TargetURL)
	})
}

func TestGetMissing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "REP-404")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestDelete(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, makeReport("REP-9", "https://x.example", report.Full, 0)))
		require.NoError(t, s.Delete(ctx, "REP-9"))

		_, err := s.Get(ctx, "REP-9")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, "REP-9"), ErrNotFound))
	})
}

func TestListFilters(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		quick := makeReport("REP-1", "https://shop.example.com", report.Quick, 3)
		full := makeReport("REP-2", "https://api.example.org", report.Full, 1)
		final := makeReport("REP-3", "https://blog.example.net", report.Standard, 2)
		final.ReportStatus = report.StatusFinalized
		final.Editable = false
		for _, r := range []*report.ScanReport{quick, full, final} {
			require.NoError(t, s.Save(ctx, r))
		}

		ids := func(f Filter) []string {
			got, err := s.List(ctx, f)
			require.NoError(t, err)
			out := []string{}
			for _, r := range got {
				out = append(out, r.ID)
			}
			return out
		}

		assert.Equal(t, []string{"REP-2", "REP-3", "REP-1"}, ids(Filter{}))
		assert.Equal(t, []string{"REP-2", "REP-3", "REP-1"}, ids(Filter{Type: "all"}))
		assert.Equal(t, []string{"REP-1"}, ids(Filter{Type: "quick"}))
		assert.Equal(t, []string{"REP-3"}, ids(Filter{Status: report.StatusFinalized}))
		assert.Equal(t, []string{"REP-2", "REP-1"}, ids(Filter{Status: report.StatusDraft}))
		assert.Equal(t, []string{"REP-1"}, ids(Filter{Search: "SHOP"}))
		assert.Equal(t, []string{"REP-3"}, ids(Filter{Search: "rep-3"}))
		assert.Equal(t, []string{"REP-2", "REP-3"}, ids(Filter{Limit: 2}))
		assert.Empty(t, ids(Filter{Type: "full", Status: report.StatusFinalized}))
	})
}

func TestRejectsPathLikeIDs(t *testing.T) {
	t.Parallel()

	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		r := makeReport(id, "https://example.com", report.Quick, 0)
		assert.True(t, errors.Is(s.Save(context.Background(), r), ErrInvalidID), id)
	}
}

func TestJSONStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), makeReport("REP-77", "https://example.com", report.Standard, 0)))

	reopened, err := NewJSONStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), "REP-77")
	require.NoError(t, err)
	assert.Equal(t, "Standard Scan", got.ScanType)
}

func TestOpenBackends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open("json", filepath.Join(dir, "store"))
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open("SQLite", filepath.Join(dir, "db", "reports.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("redis", dir)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestDashboard(t *testing.T) {
	t.Parallel()

	var reports []*report.ScanReport
	for i := range 7 {
		r := makeReport(fmt.Sprintf("REP-%d", i), "https://example.com", report.Quick, i)
		if i == 0 {
			r.ToolsUsed = []string{"Nikto"}
			r.ReportStatus = report.StatusFinalized
		}
		reports = append(reports, r)
	}

	stats := Dashboard(reports)
	assert.Equal(t, 7, stats.Reports)
	assert.Equal(t, 7, stats.Totals.High)
	assert.Equal(t, 7, stats.Totals.Total)
	assert.Equal(t, 1, stats.ByStatus[report.StatusFinalized])
	assert.Equal(t, 6, stats.ByStatus[report.StatusDraft])

	require.Len(t, stats.Recent, 5)
	assert.Equal(t, "REP-0", stats.Recent[0].ID)
	assert.Equal(t, "REP-4", stats.Recent[4].ID)

	assert.Equal(t, []ToolCount{
		{Tool: "Nmap", Count: 6},
		{Tool: "OWASP ZAP", Count: 6},
		{Tool: "Nikto", Count: 1},
	}, stats.Tools)
}

func TestDashboardEmpty(t *testing.T) {
	t.Parallel()

	stats := Dashboard(nil)
	assert.Zero(t, stats.Reports)
	assert.NotNil(t, stats.Recent)
	assert.NotNil(t, stats.Tools)
	assert.Equal(t, 0, stats.ByStatus[report.StatusDraft])
}
