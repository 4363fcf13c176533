package mcpserver_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/mcpserver"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/pkg/seedrand"
)

const target = "https://example.com"

func newServer(t *testing.T, cfg mcpserver.Config) *mcpserver.Server {
	t.Helper()
	store, err := history.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if cfg.Orchestrator == nil {
		cfg.Orchestrator = scan.NewOrchestrator(scan.Options{
			Store:  store,
			Source: seedrand.NewSequence(0.5),
		})
	}
	cfg.Service = scan.NewService(store, nil, nil)
	srv, err := mcpserver.New(cfg)
	require.NoError(t, err)
	return srv
}

// newTestSession creates a connected client↔server session for testing.
func newTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := newServer(t, mcpserver.Config{})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		// Server errors surface through the client assertions.
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if args == nil {
		args = map[string]any{}
	}
	result, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, name)
	return result
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "result has no content blocks")
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content[0] is %T, want *mcp.TextContent", result.Content[0])
	return tc.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, extractText(t, result))
	var v T
	require.NoError(t, jsonutil.Unmarshal([]byte(extractText(t, result)), &v))
	return v
}

func generate(t *testing.T, cs *mcp.ClientSession) *report.ScanReport {
	t.Helper()
	return decode[*report.ScanReport](t, callTool(t, cs, "generate_report", map[string]any{
		"target": target,
		"tools":  []string{"zap", "nmap"},
	}))
}

func TestNewRequiresService(t *testing.T) {
	_, err := mcpserver.New(mcpserver.Config{})
	assert.ErrorIs(t, err, mcpserver.ErrNoService)
}

func TestListTools(t *testing.T) {
	cs := newTestSession(t)

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.InputSchema, tool.Name)
		assert.NotNil(t, tool.Annotations, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"generate_report", "get_report", "list_reports", "edit_vulnerability",
		"rename_report", "finalize_report", "delete_report", "export_report",
		"dashboard", "list_tools",
	}, names)
}

func TestGenerateReport(t *testing.T) {
	cs := newTestSession(t)

	r := generate(t, cs)
	assert.Equal(t, "REP-50000", r.ID)
	assert.Equal(t, "Quick Scan", r.ScanType)
	assert.Equal(t, []string{"ZAP", "Nmap"}, r.ToolsUsed)
	assert.Equal(t, report.StatusDraft, r.ReportStatus)

	again := generate(t, cs)
	assert.Equal(t, r.ID, again.ID, "same target and profile returns the cached report")
}

func TestGenerateReportDefaultsToProfileTools(t *testing.T) {
	cs := newTestSession(t)

	r := decode[*report.ScanReport](t, callTool(t, cs, "generate_report", map[string]any{"target": target}))
	assert.Equal(t, "Quick Scan", r.ScanType)
	assert.Equal(t, []string{"ZAP", "Nmap", "Security Headers Scanner"}, r.ToolsUsed)

	full := decode[*report.ScanReport](t, callTool(t, cs, "generate_report", map[string]any{"target": target, "profile": "full"}))
	assert.Equal(t, scan.ToolNames(report.Full.DefaultTools()), full.ToolsUsed)

	tools, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	for _, tool := range tools.Tools {
		if tool.Name != "generate_report" {
			continue
		}
		data, err := jsonutil.Marshal(tool.InputSchema)
		require.NoError(t, err)
		var schema struct {
			Required []string `json:"required"`
		}
		require.NoError(t, jsonutil.Unmarshal(data, &schema))
		assert.Equal(t, []string{"target"}, schema.Required)
	}
}

func TestGenerateReportValidation(t *testing.T) {
	cs := newTestSession(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no url", map[string]any{"tools": []string{"zap"}}, "please enter a URL"},
		{"bad scheme", map[string]any{"target": "ftp://x.example", "tools": []string{"zap"}}, "URL must start with http:// or https://"},
		{"bad profile", map[string]any{"target": target, "profile": "deep", "tools": []string{"zap"}}, "quick, standard, full"},
		{"unknown tool", map[string]any{"target": target, "tools": []string{"burp"}}, "unknown tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, cs, "generate_report", tt.args)
			require.True(t, result.IsError)
			assert.Contains(t, extractText(t, result), tt.want)
		})
	}
}

func TestReportLifecycle(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)

	got := decode[*report.ScanReport](t, callTool(t, cs, "get_report", map[string]any{"id": r.ID}))
	assert.Equal(t, r.Summary, got.Summary)

	edited := decode[map[string]any](t, callTool(t, cs, "edit_vulnerability", map[string]any{
		"report_id": r.ID,
		"vuln_id":   "VULN-C-1",
		"severity":  "low",
		"name":      "Downgraded",
	}))
	summary := edited["summary"].(map[string]any)
	assert.EqualValues(t, r.Summary.Critical-1, summary["critical"])
	assert.EqualValues(t, r.Summary.Low+1, summary["low"])
	assert.Equal(t, "Downgraded", edited["vulnerability"].(map[string]any)["name"])

	bad := callTool(t, cs, "edit_vulnerability", map[string]any{"report_id": r.ID, "vuln_id": "VULN-H-1", "severity": "urgent"})
	require.True(t, bad.IsError)
	assert.Contains(t, extractText(t, bad), "invalid severity")

	renamed := decode[map[string]any](t, callTool(t, cs, "rename_report", map[string]any{"id": r.ID, "name": "Customer Portal"}))
	assert.Equal(t, "Customer Portal", renamed["target"])

	final := decode[map[string]any](t, callTool(t, cs, "finalize_report", map[string]any{"id": r.ID}))
	assert.Equal(t, "Finalized", final["status"])

	locked := callTool(t, cs, "rename_report", map[string]any{"id": r.ID, "name": "Again"})
	require.True(t, locked.IsError)
	assert.Contains(t, extractText(t, locked), "finalized")
}

func TestFinalizeWithGate(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)

	// The fixed source yields one critical finding.
	rejected := callTool(t, cs, "finalize_report", map[string]any{"id": r.ID, "gate": "no-critical"})
	require.True(t, rejected.IsError)
	assert.Contains(t, extractText(t, rejected), "gate rejected report")

	got := decode[*report.ScanReport](t, callTool(t, cs, "get_report", map[string]any{"id": r.ID}))
	assert.Equal(t, report.StatusDraft, got.ReportStatus)

	unknown := callTool(t, cs, "finalize_report", map[string]any{"id": r.ID, "gate": "lenient"})
	require.True(t, unknown.IsError)
	assert.Contains(t, extractText(t, unknown), "no-critical")

	script := filepath.Join(t.TempDir(), "allow.tengo")
	require.NoError(t, os.WriteFile(script, []byte(`pass := total > 0`), 0o644))
	final := decode[map[string]any](t, callTool(t, cs, "finalize_report", map[string]any{"id": r.ID, "gate": script}))
	assert.Equal(t, "Finalized", final["status"])
}

func TestMissingReport(t *testing.T) {
	cs := newTestSession(t)

	for _, name := range []string{"get_report", "delete_report", "finalize_report", "export_report"} {
		result := callTool(t, cs, name, map[string]any{"id": "REP-404"})
		require.True(t, result.IsError, name)
		assert.Contains(t, extractText(t, result), "not found", name)
	}

	result := callTool(t, cs, "get_report", nil)
	require.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "'id' is required")
}

func TestListReportsAndDashboard(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)

	list := decode[map[string]any](t, callTool(t, cs, "list_reports", map[string]any{"type": "quick"}))
	assert.EqualValues(t, 1, list["count"])

	empty := decode[map[string]any](t, callTool(t, cs, "list_reports", map[string]any{"status": "Finalized"}))
	assert.EqualValues(t, 0, empty["count"])

	dash := decode[map[string]any](t, callTool(t, cs, "dashboard", nil))
	assert.EqualValues(t, 1, dash["reports"])
	recent := dash["recent"].([]any)
	require.Len(t, recent, 1)
	assert.Equal(t, r.ID, recent[0].(map[string]any)["id"])

	decode[map[string]any](t, callTool(t, cs, "delete_report", map[string]any{"id": r.ID}))
	list = decode[map[string]any](t, callTool(t, cs, "list_reports", nil))
	assert.EqualValues(t, 0, list["count"])
}

func TestExportReport(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)

	type export struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Encoding    string `json:"encoding"`
		Size        int    `json:"size"`
		Content     string `json:"content"`
	}

	html := decode[export](t, callTool(t, cs, "export_report", map[string]any{"id": r.ID}))
	assert.Equal(t, "security-report-https://example.com.html", html.Filename)
	assert.Equal(t, "utf-8", html.Encoding)
	assert.Contains(t, html.Content, "Security Scan Report")
	assert.Equal(t, len(html.Content), html.Size)

	csv := decode[export](t, callTool(t, cs, "export_report", map[string]any{"id": r.ID, "format": "csv"}))
	assert.True(t, strings.HasPrefix(csv.Content, "ID,Severity,Name,Location,Payload,Description,Remediation"))

	pdf := decode[export](t, callTool(t, cs, "export_report", map[string]any{"id": r.ID, "format": "pdf"}))
	assert.Equal(t, "base64", pdf.Encoding)
	raw, err := base64.StdEncoding.DecodeString(pdf.Content)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
	assert.Equal(t, len(raw), pdf.Size)

	bad := callTool(t, cs, "export_report", map[string]any{"id": r.ID, "format": "docx"})
	require.True(t, bad.IsError)
}

func TestExportCSVFormulaGuard(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)
	require.NotEmpty(t, r.Vulnerabilities)

	edited := callTool(t, cs, "edit_vulnerability", map[string]any{
		"report_id": r.ID, "vuln_id": r.Vulnerabilities[0].ID, "name": "=HYPERLINK(\"x\")",
	})
	require.False(t, edited.IsError, extractText(t, edited))

	type export struct {
		Content string `json:"content"`
	}
	guarded := decode[export](t, callTool(t, cs, "export_report", map[string]any{"id": r.ID, "format": "csv"}))
	assert.Contains(t, guarded.Content, `"'=HYPERLINK(""x"")"`)

	plain := decode[export](t, callTool(t, cs, "export_report", map[string]any{
		"id": r.ID, "format": "csv", "sanitize_formulas": false,
	}))
	cr := csv.NewReader(strings.NewReader(plain.Content))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, `=HYPERLINK("x")`, rows[1][2])
}

func TestListToolsCatalogue(t *testing.T) {
	cs := newTestSession(t)

	got := decode[map[string]any](t, callTool(t, cs, "list_tools", nil))
	assert.Len(t, got["tools"], len(scan.Tools()))
	assert.Equal(t, []any{"quick", "standard", "full"}, got["profiles"])
	assert.Contains(t, got["gates"], "no-critical")
}

func TestReportResource(t *testing.T) {
	cs := newTestSession(t)
	r := generate(t, cs)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "scanreport://reports/" + r.ID})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, r.ID)

	_, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "scanreport://reports/REP-404"})
	assert.Error(t, err)

	gates, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "scanreport://gates"})
	require.NoError(t, err)
	assert.Contains(t, gates.Contents[0].Text, "pass")
}

func TestReviewPrompt(t *testing.T) {
	cs := newTestSession(t)

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "review_report",
		Arguments: map[string]string{"target": target},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, `"no-critical"`)
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newServer(t, mcpserver.Config{})
	h := srv.HTTPHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv.MarkReady()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, mcpserver.Config{})

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://ui.example")
	rec := httptest.NewRecorder()
	srv.HTTPHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ui.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id")
}

func TestRateLimit(t *testing.T) {
	srv := newServer(t, mcpserver.Config{RateLimit: 0.001, Burst: 1})
	srv.MarkReady()
	h := srv.HTTPHandler()

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.NotEqual(t, http.StatusTooManyRequests, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is never rate limited")
}
