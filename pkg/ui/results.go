package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/report"
)

// SeverityBadge renders a colored tier label, e.g. " critical ".
func SeverityBadge(sev finding.Severity) string {
	return SeverityStyle(sev).Render(strings.ToLower(string(sev)))
}

// PrintReport prints the detail view of one report to w.
func PrintReport(w io.Writer, r *report.ScanReport) {
	section(w, "Report "+r.ID)
	field(w, "Target", URLStyle.Render(r.TargetURL))
	field(w, "Scan Type", r.ScanType)
	field(w, "Date", r.ScanDate.Local().Format("2006-01-02 15:04:05"))
	field(w, "Duration", strconv.Itoa(r.ScanTime)+"s")
	field(w, "Status", StatusStyle(r.ReportStatus).Render(string(r.ReportStatus)))
	if r.ImportedFile != nil {
		field(w, "Imported From", r.ImportedFile.Name)
	}
	if len(r.ToolsUsed) > 0 {
		tools := make([]string, len(r.ToolsUsed))
		for i, t := range r.ToolsUsed {
			tools[i] = ToolStyle.Render(t)
		}
		field(w, "Tools", strings.Join(tools, " "))
	}

	PrintSummaryCounts(w, r.Summary)
	if len(r.PortScan) > 0 {
		PrintPorts(w, r.PortScan)
	}
	if len(r.Vulnerabilities) > 0 {
		PrintVulnerabilities(w, r.Vulnerabilities)
	}
}

// PrintSummaryCounts prints one badge per tier followed by the total.
func PrintSummaryCounts(w io.Writer, s report.Summary) {
	section(w, "Vulnerability Summary")
	var parts []string
	for _, sev := range finding.Severities() {
		parts = append(parts, SeverityBadge(sev)+" "+StatValueStyle.Render(strconv.Itoa(s.Count(sev))))
	}
	fmt.Fprintf(w, "  %s   %s %s\n", strings.Join(parts, "  "),
		LabelStyle.UnsetWidth().Render("total"), StatValueStyle.Render(strconv.Itoa(s.Total)))
}

// PrintPorts prints the port scan table.
func PrintPorts(w io.Writer, ports []finding.PortFinding) {
	section(w, "Port Scan Results")
	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		rows = append(rows, []string{strconv.Itoa(p.Port), string(p.State), p.Service, p.Version})
	}
	table(w, []string{"PORT", "STATE", "SERVICE", "VERSION"}, rows, func(col int, cell string) string {
		if col == 1 {
			return PortStateStyle(finding.PortState(cell)).Render(cell)
		}
		return cell
	})
}

// PrintVulnerabilities prints one line per vulnerability.
func PrintVulnerabilities(w io.Writer, vulns []finding.Vulnerability) {
	section(w, "Detected Vulnerabilities")
	for _, v := range vulns {
		fmt.Fprintf(w, "  %s %s %s %s\n",
			BracketStyle.Render("["+v.ID+"]"),
			SeverityBadge(v.Severity),
			ValueStyle.Render(SanitizeString(v.Name)),
			BracketStyle.Render(v.Location))
	}
}

// PrintReportList prints the report index table.
func PrintReportList(w io.Writer, reports []*report.ScanReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, HelpStyle.Render("  No reports found."))
		return
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ID,
			r.ScanDate.Local().Format("2006-01-02 15:04"),
			r.ScanType,
			truncate(r.TargetURL, 40),
			fmt.Sprintf("%d/%d/%d/%d", r.Summary.Critical, r.Summary.High, r.Summary.Medium, r.Summary.Low),
			string(r.ReportStatus),
		})
	}
	table(w, []string{"ID", "DATE", "TYPE", "TARGET", "C/H/M/L", "STATUS"}, rows, func(col int, cell string) string {
		if col == 5 {
			return StatusStyle(report.Status(cell)).Render(cell)
		}
		return cell
	})
}

// PrintDashboard prints the aggregate store view.
func PrintDashboard(w io.Writer, stats history.DashboardStats) {
	section(w, "Dashboard")
	field(w, "Reports", strconv.Itoa(stats.Reports))
	field(w, "Drafts", strconv.Itoa(stats.ByStatus[report.StatusDraft]))
	field(w, "Finalized", strconv.Itoa(stats.ByStatus[report.StatusFinalized]))
	PrintSummaryCounts(w, stats.Totals)

	if len(stats.Tools) > 0 {
		section(w, "Tool Usage")
		rows := make([][]string, 0, len(stats.Tools))
		for _, t := range stats.Tools {
			rows = append(rows, []string{t.Tool, strconv.Itoa(t.Count)})
		}
		table(w, []string{"TOOL", "REPORTS"}, rows, nil)
	}

	section(w, "Recent Reports")
	PrintReportList(w, stats.Recent)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", SectionStyle.UnsetMarginTop().Render("> "+title), DividerStyle.Render(bannerSeparator))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(label+":"), value)
}

// table prints left-aligned columns. Widths are computed on the raw cells
// so ANSI styling from style does not skew alignment.
func table(w io.Writer, header []string, rows [][]string, style func(col int, cell string) string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	headStyle := lipgloss.NewStyle().Foreground(Muted).Bold(true)
	var b strings.Builder
	b.WriteString(" ")
	for i, h := range header {
		b.WriteString(" ")
		b.WriteString(headStyle.Render(padRight(h, widths[i])))
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for _, row := range rows {
		b.Reset()
		b.WriteString(" ")
		for i, cell := range row {
			padded := padRight(cell, widths[i])
			if style != nil {
				padded = style(i, cell) + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
			}
			b.WriteString(" ")
			b.WriteString(padded)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}
