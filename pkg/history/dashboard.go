package history

import (
	"cmp"
	"slices"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/report"
)

// ToolCount is how many stored reports used a tool.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// DashboardStats aggregates the whole store for the dashboard view.
type DashboardStats struct {
	Reports  int                   `json:"reports"`
	Totals   report.Summary        `json:"totals"`
	Recent   []*report.ScanReport  `json:"recent"`
	Tools    []ToolCount           `json:"tools"`
	ByStatus map[report.Status]int `json:"byStatus"`
}

// Dashboard aggregates reports. The input order does not matter.
func Dashboard(reports []*report.ScanReport) DashboardStats {
	stats := DashboardStats{
		Reports:  len(reports),
		Recent:   []*report.ScanReport{},
		Tools:    []ToolCount{},
		ByStatus: map[report.Status]int{report.StatusDraft: 0, report.StatusFinalized: 0},
	}

	usage := make(map[string]int)
	for _, r := range reports {
		stats.Totals = stats.Totals.Add(r.Summary)
		stats.ByStatus[r.ReportStatus]++
		for _, tool := range r.ToolsUsed {
			usage[tool]++
		}
	}

	for tool, n := range usage {
		stats.Tools = append(stats.Tools, ToolCount{Tool: tool, Count: n})
	}
	slices.SortFunc(stats.Tools, func(a, b ToolCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tool, b.Tool)
	})

	recent := slices.Clone(reports)
	sortNewestFirst(recent)
	if len(recent) > defaults.RecentReports {
		recent = recent[:defaults.RecentReports]
	}
	stats.Recent = append(stats.Recent, recent...)
	return stats
}
