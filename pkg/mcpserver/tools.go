package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/gate"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/output/writers"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
)

// registerTools adds all report tools to the MCP server.
func (s *Server) registerTools() {
	s.addGenerateReportTool()
	s.addGetReportTool()
	s.addListReportsTool()
	s.addEditVulnerabilityTool()
	s.addRenameReportTool()
	s.addFinalizeReportTool()
	s.addDeleteReportTool()
	s.addExportReportTool()
	s.addDashboardTool()
	s.addListToolsTool()
}

var idSchema = map[string]any{
	"type":        "string",
	"description": "Report id, e.g. REP-48213 or imported-1717000000000.",
}

// storeError maps store and edit failures to actionable results.
func storeError(id string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, history.ErrNotFound), errors.Is(err, history.ErrInvalidID):
		return enrichedError(fmt.Sprintf("report %q not found", id), []string{
			"Call list_reports to see the stored report ids.",
			"Call generate_report to create a new report.",
		})
	case errors.Is(err, report.ErrReportFinalized):
		return enrichedError(fmt.Sprintf("report %q is finalized and can no longer be edited", id), []string{
			"Export the report with export_report, or generate a new one.",
		})
	case errors.Is(err, report.ErrVulnerabilityNotFound):
		return enrichedError(err.Error(), []string{
			"Call get_report to list the vulnerability ids of this report.",
		})
	case errors.Is(err, scan.ErrGateFailed):
		return enrichedError(err.Error(), []string{
			"Review or edit the findings that fail the gate, then retry finalize_report.",
			"Call list_tools to see the available gate presets.",
		})
	}
	return errorResult(err.Error())
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_report: Synthesize a scan report for a target
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGenerateReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "generate_report",
			Title: "Generate Scan Report",
			Description: `Generate a synthetic security scan report for a target URL and store it as a Draft.

USE THIS TOOL WHEN:
• The user asks for a scan report, security assessment or findings for a URL
• You need a report id for the other report tools

No traffic is sent to the target. The same target and profile always return the same
report for the lifetime of the server, so calling this again is safe.

EXAMPLE INPUTS:
• {"target": "https://example.com"}
• {"target": "https://example.com", "tools": ["zap", "nmap"]}
• {"target": "https://shop.example", "profile": "full", "tools": ["zap", "sqlmap", "trivy"]}

PROFILES: quick (fewest findings, ~4-7 min), standard, full (most findings, ~15-23 min).
Without tools the profile's default tools are used. Call list_tools for the tool ids.

Returns: the full report JSON including id, vulnerabilities, port scan, headers and summary.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"target": map[string]any{
						"type":        "string",
						"description": "Target URL with http:// or https:// scheme.",
					},
					"profile": map[string]any{
						"type":        "string",
						"description": "Scan profile.",
						"enum":        profileNames(),
						"default":     string(report.Quick),
					},
					"tools": map[string]any{
						"type":        "array",
						"description": "Scanner tool ids to list in the report. Defaults to the profile's tools.",
						"items":       map[string]any{"type": "string", "enum": scan.ToolIDs()},
					},
				},
				"required": []string{"target"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:    false,
				IdempotentHint:  true,
				DestructiveHint: boolPtr(false),
				OpenWorldHint:   boolPtr(false),
				Title:           "Generate Scan Report",
			},
		},
		s.handleGenerateReport,
	)
}

type generateArgs struct {
	Target  string   `json:"target"`
	Profile string   `json:"profile"`
	Tools   []string `json:"tools"`
}

func (s *Server) handleGenerateReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'target' (string), 'profile' (string) and 'tools' (array of strings).", err)), nil
	}
	if args.Profile == "" {
		args.Profile = string(report.Quick)
	}
	profile, err := report.ParseProfile(args.Profile)
	if err != nil {
		return errorResult(fmt.Sprintf("%v. Use one of: %s.", err, strings.Join(profileNames(), ", "))), nil
	}

	scanReq := scan.Request{Target: strings.TrimSpace(args.Target), Profile: profile, Tools: args.Tools}
	if err := scan.ValidateRequest(scanReq); err != nil {
		return enrichedError(err.Error(), []string{
			"Pass a full URL such as https://example.com.",
			"Pass only tool ids listed by list_tools, or omit tools for the profile defaults.",
		}), nil
	}

	logToSession(ctx, req, logInfo, fmt.Sprintf("generating %s report for %s", profile, scanReq.Target))
	runCtx := scan.WithProgress(ctx, func(pct int, cached bool) {
		msg := "scanning"
		if cached {
			msg = "loading cached report"
		}
		notifyProgress(ctx, req, float64(pct), 100, msg)
	})

	r, err := s.orch.Run(runCtx, scanReq)
	if err != nil {
		s.logger.Error("mcp: generate_report failed", slog.String("target", scanReq.Target), slog.String("error", err.Error()))
		return errorResult(fmt.Sprintf("report generation failed: %v", err)), nil
	}
	return jsonResult(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// get_report: Fetch one stored report
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGetReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "get_report",
			Title: "Get Report",
			Description: `Fetch a stored report by id with all findings.

USE THIS TOOL WHEN:
• You need vulnerability ids before calling edit_vulnerability
• The user asks for details of a specific report

EXAMPLE INPUT: {"id": "REP-48213"}`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": idSchema},
				"required":   []string{"id"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Get Report",
			},
		},
		s.handleGetReport,
	)
}

type idArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleGetReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := parseArgs(req, &args); err != nil || args.ID == "" {
		return errorResult("'id' is required (e.g. REP-48213). Call list_reports to find ids."), nil
	}
	r, err := s.svc.Get(ctx, args.ID)
	if err != nil {
		return storeError(args.ID, err), nil
	}
	return jsonResult(r)
}

// ═══════════════════════════════════════════════════════════════════════════
// list_reports: Browse stored reports
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListReportsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "list_reports",
			Title: "List Reports",
			Description: `List stored reports, newest first, with severity counts.

EXAMPLE INPUTS:
• Everything: {}
• Drafts of full scans: {"type": "full", "status": "Draft"}
• Search by target or id: {"search": "example.com", "limit": 5}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type":        "string",
						"description": "Scan type filter.",
						"enum":        append(profileNames(), "imported report", "all"),
					},
					"status": map[string]any{
						"type": "string",
						"enum": []string{string(report.StatusDraft), string(report.StatusFinalized)},
					},
					"search": map[string]any{
						"type":        "string",
						"description": "Case-insensitive substring of the target URL or id.",
					},
					"limit": map[string]any{
						"type":    "integer",
						"minimum": 0,
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "List Reports",
			},
		},
		s.handleListReports,
	)
}

type listArgs struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

// reportSummary is the list_reports row.
type reportSummary struct {
	ID       string         `json:"id"`
	Target   string         `json:"target"`
	ScanType string         `json:"scan_type"`
	ScanDate time.Time      `json:"scan_date"`
	Status   report.Status  `json:"status"`
	Summary  report.Summary `json:"summary"`
}

func summarize(reports []*report.ScanReport) []reportSummary {
	out := make([]reportSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportSummary{
			ID:       r.ID,
			Target:   r.TargetURL,
			ScanType: r.ScanType,
			ScanDate: r.ScanDate,
			Status:   r.ReportStatus,
			Summary:  r.Summary,
		})
	}
	return out
}

func (s *Server) handleListReports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args listArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Limit < 0 {
		return errorResult("'limit' must not be negative"), nil
	}
	reports, err := s.svc.List(ctx, history.Filter{
		Type:   args.Type,
		Status: report.Status(args.Status),
		Search: args.Search,
		Limit:  args.Limit,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing reports failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"count":   len(reports),
		"reports": summarize(reports),
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// edit_vulnerability: Patch one finding of a Draft report
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addEditVulnerabilityTool() {
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "edit_vulnerability",
			Title: "Edit Vulnerability",
			Description: `Change fields of one vulnerability in a Draft report. Omitted fields are left unchanged.
The report summary is recounted when the severity changes. Finalized reports are rejected.

EXAMPLE INPUT: {"report_id": "REP-48213", "vuln_id": "VULN-C-1", "severity": "high"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"report_id": idSchema,
					"vuln_id":   str("Vulnerability id, e.g. VULN-C-1."),
					"name":      str("New name."),
					"severity": map[string]any{
						"type": "string",
						"enum": severityNames(),
					},
					"location":    str("New location (path)."),
					"description": str("New description."),
					"remediation": str("New remediation advice."),
					"payload":     str("New proof-of-concept payload."),
				},
				"required": []string{"report_id", "vuln_id"},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint:  true,
				DestructiveHint: boolPtr(false),
				OpenWorldHint:   boolPtr(false),
				Title:           "Edit Vulnerability",
			},
		},
		s.handleEditVulnerability,
	)
}

type editArgs struct {
	ReportID string `json:"report_id"`
	VulnID   string `json:"vuln_id"`
	scan.VulnerabilityPatch
}

func (s *Server) handleEditVulnerability(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args editArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.ReportID == "" || args.VulnID == "" {
		return errorResult("'report_id' and 'vuln_id' are required. Call get_report to list vulnerability ids."), nil
	}
	r, err := s.svc.EditVulnerability(ctx, args.ReportID, args.VulnID, args.VulnerabilityPatch)
	if err != nil {
		if errors.Is(err, finding.ErrInvalidSeverity) {
			return errorResult(fmt.Sprintf("%v. Use one of: %s.", err, strings.Join(severityNames(), ", "))), nil
		}
		return storeError(args.ReportID, err), nil
	}
	v, _ := r.Vulnerability(args.VulnID)
	return jsonResult(map[string]any{
		"report_id":     r.ID,
		"vulnerability": v,
		"summary":       r.Summary,
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// rename_report: Change the target name of a Draft report
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addRenameReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "rename_report",
			Title:       "Rename Report",
			Description: `Set the target name shown on a Draft report. EXAMPLE INPUT: {"id": "REP-48213", "name": "Customer Portal"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   idSchema,
					"name": map[string]any{"type": "string", "minLength": 1},
				},
				"required": []string{"id", "name"},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint:  true,
				DestructiveHint: boolPtr(false),
				OpenWorldHint:   boolPtr(false),
				Title:           "Rename Report",
			},
		},
		s.handleRenameReport,
	)
}

func (s *Server) handleRenameReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := parseArgs(req, &args); err != nil || args.ID == "" {
		return errorResult("'id' and 'name' are required."), nil
	}
	r, err := s.svc.Rename(ctx, args.ID, args.Name)
	if err != nil {
		if errors.Is(err, report.ErrEmptyName) {
			return errorResult("'name' must not be empty."), nil
		}
		return storeError(args.ID, err), nil
	}
	return jsonResult(summarize([]*report.ScanReport{r})[0])
}

// ═══════════════════════════════════════════════════════════════════════════
// finalize_report: Lock a report, optionally behind a gate
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addFinalizeReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "finalize_report",
			Title: "Finalize Report",
			Description: `Mark a report Finalized. Finalized reports can no longer be edited or renamed.

Pass 'gate' to require a policy first: a preset name (call list_tools for presets such as
"no-critical" or "strict") or a path to a Tengo gate script. A failing gate leaves the report a Draft.

EXAMPLE INPUTS:
• {"id": "REP-48213"}
• {"id": "REP-48213", "gate": "no-critical"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": idSchema,
					"gate": map[string]any{
						"type":        "string",
						"description": "Gate preset name or script path.",
					},
				},
				"required": []string{"id"},
			},
			Annotations: &mcp.ToolAnnotations{
				IdempotentHint:  true,
				DestructiveHint: boolPtr(false),
				OpenWorldHint:   boolPtr(false),
				Title:           "Finalize Report",
			},
		},
		s.handleFinalizeReport,
	)
}

func (s *Server) handleFinalizeReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID   string `json:"id"`
		Gate string `json:"gate"`
	}
	if err := parseArgs(req, &args); err != nil || args.ID == "" {
		return errorResult("'id' is required."), nil
	}

	var g scan.Gate
	if args.Gate != "" {
		compiled, err := gate.Resolve(args.Gate)
		if err != nil {
			return enrichedError(fmt.Sprintf("cannot load gate %q: %v", args.Gate, err), []string{
				"Use a preset: " + strings.Join(gate.Presets(), ", ") + ".",
			}), nil
		}
		g = compiled
	}

	r, err := s.svc.Finalize(ctx, args.ID, g)
	if err != nil {
		return storeError(args.ID, err), nil
	}
	return jsonResult(summarize([]*report.ScanReport{r})[0])
}

// ═══════════════════════════════════════════════════════════════════════════
// delete_report: Remove a stored report
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addDeleteReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "delete_report",
			Title: "Delete Report",
			Description: `Permanently delete a stored report. This cannot be undone.

Only call this when the user explicitly asks to delete a report.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": idSchema},
				"required":   []string{"id"},
			},
			Annotations: &mcp.ToolAnnotations{
				DestructiveHint: boolPtr(true),
				OpenWorldHint:   boolPtr(false),
				Title:           "Delete Report",
			},
		},
		s.handleDeleteReport,
	)
}

func (s *Server) handleDeleteReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := parseArgs(req, &args); err != nil || args.ID == "" {
		return errorResult("'id' is required."), nil
	}
	if err := s.svc.Delete(ctx, args.ID); err != nil {
		return storeError(args.ID, err), nil
	}
	return jsonResult(map[string]any{"deleted": args.ID})
}

// ═══════════════════════════════════════════════════════════════════════════
// export_report: Render a report document
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addExportReportTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "export_report",
			Title: "Export Report",
			Description: `Render a stored report as a document.

FORMATS:
• html, narrative, csv, json, md → returned as text ("encoding": "utf-8")
• pdf, archive (zstd-compressed JSON) → returned base64 encoded ("encoding": "base64")

CSV cells starting with =, +, - or @ are prefixed with ' so spreadsheets do not run
them as formulas. Pass "sanitize_formulas": false for byte-exact CSV.

Returns: {filename, content_type, encoding, size, content}.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": idSchema,
					"format": map[string]any{
						"type":    "string",
						"enum":    writers.Formats(),
						"default": writers.FormatHTML,
					},
					"sanitize_formulas": map[string]any{
						"type":        "boolean",
						"description": "Guard CSV cells against spreadsheet formula injection.",
						"default":     true,
					},
				},
				"required": []string{"id"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Export Report",
			},
		},
		s.handleExportReport,
	)
}

type exportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Encoding    string `json:"encoding"`
	Size        int    `json:"size"`
	Content     string `json:"content"`
}

// binaryFormats are returned base64 encoded.
var binaryFormats = map[string]bool{
	writers.FormatPDF:     true,
	writers.FormatArchive: true,
}

func (s *Server) handleExportReport(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID               string `json:"id"`
		Format           string `json:"format"`
		SanitizeFormulas *bool  `json:"sanitize_formulas"`
	}
	if err := parseArgs(req, &args); err != nil || args.ID == "" {
		return errorResult("'id' is required."), nil
	}
	if args.Format == "" {
		args.Format = writers.FormatHTML
	}

	sanitize := args.SanitizeFormulas == nil || *args.SanitizeFormulas
	w, err := writers.ForFormat(args.Format, writers.Options{Branding: s.branding, SanitizeFormulas: sanitize})
	if err != nil {
		return errorResult(fmt.Sprintf("%v. Use one of: %s.", err, strings.Join(writers.Formats(), ", "))), nil
	}
	r, err := s.svc.Get(ctx, args.ID)
	if err != nil {
		return storeError(args.ID, err), nil
	}

	var buf bytes.Buffer
	if err := w.Write(&buf, r); err != nil {
		return errorResult(fmt.Sprintf("export failed: %v", err)), nil
	}

	res := exportResult{
		Filename:    writers.Filename(r, w.Extension()),
		ContentType: w.ContentType(),
		Encoding:    "utf-8",
		Size:        buf.Len(),
		Content:     buf.String(),
	}
	if binaryFormats[w.Format()] {
		res.Encoding = "base64"
		res.Content = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return jsonResult(res)
}

// ═══════════════════════════════════════════════════════════════════════════
// dashboard: Aggregate view of the store
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addDashboardTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "dashboard",
			Title:       "Report Dashboard",
			Description: `Aggregate every stored report: report count, severity totals, counts by status, tool usage and the most recent reports.`,
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Report Dashboard",
			},
		},
		s.handleDashboard,
	)
}

func (s *Server) handleDashboard(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Dashboard(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("dashboard failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"reports":   stats.Reports,
		"totals":    stats.Totals,
		"by_status": stats.ByStatus,
		"tools":     stats.Tools,
		"recent":    summarize(stats.Recent),
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// list_tools: Scanner catalogue, profiles and gates
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListToolsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "list_tools",
			Title:       "List Scanner Tools",
			Description: `List the selectable scanner tool ids, the scan profiles, the export formats and the bundled finalize gate presets.`,
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "List Scanner Tools",
			},
		},
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return jsonResult(map[string]any{
				"tools":    scan.Tools(),
				"profiles": profileNames(),
				"formats":  writers.Formats(),
				"gates":    gate.Presets(),
			})
		},
	)
}

func profileNames() []string {
	var out []string
	for _, p := range report.Profiles() {
		out = append(out, string(p))
	}
	return out
}

func severityNames() []string {
	var out []string
	for _, sev := range finding.Severities() {
		out = append(out, string(sev))
	}
	return out
}
