package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// scenarioResult tracks the outcome of a single scenario.
type scenarioResult struct {
	name   string
	passed bool
	err    error
}

// scenario is a named test function that runs against a live MCP session.
type scenario struct {
	name string
	fn   func(ctx context.Context, s *mcp.ClientSession, target string) error
}

func main() {
	var (
		port    = flag.Int("port", 18080, "MCP HTTP port")
		target  = flag.String("target", "https://example.com", "Target URL for generated reports")
		timeout = flag.Duration("timeout", 90*time.Second, "Overall timeout")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	storeDir, err := os.MkdirTemp("", "scanreport-smoke-")
	if err != nil {
		log.Fatalf("FATAL temp store: %v", err)
	}
	defer os.RemoveAll(storeDir)

	serverCmd, err := startServer(ctx, *port, storeDir)
	if err != nil {
		log.Fatalf("FATAL start_server: %v", err)
	}
	defer stopServer(serverCmd)

	if err := waitForHealth(ctx, *port); err != nil {
		log.Fatalf("FATAL health_check: %v", err)
	}
	fmt.Println("server: healthy")

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: fmt.Sprintf("http://127.0.0.1:%d/mcp", *port),
	}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	var results []scenarioResult
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}
		err := sc.fn(ctx, session, *target)
		results = append(results, scenarioResult{name: sc.name, passed: err == nil, err: err})
		if err == nil {
			fmt.Printf("PASS  %s\n", sc.name)
		} else {
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
		}
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	fmt.Printf("\n--- %d passed, %d failed ---\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// allScenarios returns every smoke scenario in execution order. Later
// scenarios rely on the report created by report_lifecycle.
func allScenarios() []scenario {
	return []scenario{
		{"tool_discovery", scenarioToolDiscovery},
		{"resource_exploration", scenarioResourceExploration},
		{"prompt_catalog", scenarioPromptCatalog},
		{"report_lifecycle", scenarioReportLifecycle},
		{"export_formats", scenarioExportFormats},
		{"error_handling", scenarioErrorHandling},
	}
}

// ---------------------------------------------------------------------------
// tool_discovery: every tool exists and carries metadata
// ---------------------------------------------------------------------------

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession, _ string) error {
	tools, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}

	expected := []string{
		"generate_report", "get_report", "list_reports", "edit_vulnerability",
		"rename_report", "finalize_report", "delete_report", "export_report",
		"dashboard", "list_tools",
	}
	have := make(map[string]bool, len(tools.Tools))
	for _, t := range tools.Tools {
		have[t.Name] = true
		if t.Description == "" {
			return fmt.Errorf("tool %q has empty description", t.Name)
		}
		if t.InputSchema == nil {
			return fmt.Errorf("tool %q has nil input schema", t.Name)
		}
	}
	var missing []string
	for _, name := range expected {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %v (have %d)", missing, len(tools.Tools))
	}

	// NEGATIVE: a nonexistent tool must not silently succeed.
	fake, err := callToolRaw(ctx, s, "nonexistent_tool", map[string]any{})
	if err == nil && !fake.IsError {
		return fmt.Errorf("NEG nonexistent tool: expected error, got success")
	}
	return nil
}

// ---------------------------------------------------------------------------
// resource_exploration: static resources parse as JSON
// ---------------------------------------------------------------------------

func scenarioResourceExploration(ctx context.Context, s *mcp.ClientSession, _ string) error {
	for _, uri := range []string{"scanreport://version", "scanreport://tools", "scanreport://gates"} {
		res, err := s.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			return fmt.Errorf("ReadResource %s: %w", uri, err)
		}
		if !json.Valid([]byte(resourceText(res))) {
			return fmt.Errorf("%s: invalid JSON: %s", uri, truncate(resourceText(res), 200))
		}
	}
	if _, err := s.ReadResource(ctx, &mcp.ReadResourceParams{URI: "scanreport://reports/REP-404"}); err == nil {
		return fmt.Errorf("NEG missing report resource: expected error")
	}
	return nil
}

// ---------------------------------------------------------------------------
// prompt_catalog: review_report renders with and without optional args
// ---------------------------------------------------------------------------

func scenarioPromptCatalog(ctx context.Context, s *mcp.ClientSession, target string) error {
	res, err := s.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "review_report",
		Arguments: map[string]string{"target": target, "gate": "strict"},
	})
	if err != nil {
		return fmt.Errorf("GetPrompt: %w", err)
	}
	if text := promptText(res); !strings.Contains(text, `"strict"`) {
		return fmt.Errorf("prompt does not name the gate: %s", truncate(text, 200))
	}
	if _, err := s.GetPrompt(ctx, &mcp.GetPromptParams{Name: "review_report"}); err == nil {
		return fmt.Errorf("NEG prompt without target: expected error")
	}
	return nil
}

// ---------------------------------------------------------------------------
// report_lifecycle: generate, edit, rename, gate, finalize
// ---------------------------------------------------------------------------

var reportID string

func scenarioReportLifecycle(ctx context.Context, s *mcp.ClientSession, target string) error {
	r, err := callToolJSON(ctx, s, "generate_report", map[string]any{
		"target": target, "profile": "standard", "tools": []string{"zap", "nmap", "nikto"},
	})
	if err != nil {
		return err
	}
	reportID, _ = r["id"].(string)
	if !strings.HasPrefix(reportID, "REP-") {
		return fmt.Errorf("unexpected report id %q", reportID)
	}

	again, err := callToolJSON(ctx, s, "generate_report", map[string]any{
		"target": target, "profile": "standard", "tools": []string{"zap"},
	})
	if err != nil {
		return err
	}
	if again["id"] != reportID {
		return fmt.Errorf("resubmission returned %v, want cached %s", again["id"], reportID)
	}

	quick, err := callToolJSON(ctx, s, "generate_report", map[string]any{"target": target})
	if err != nil {
		return err
	}
	if tools, _ := quick["toolsUsed"].([]any); len(tools) != 3 {
		return fmt.Errorf("quick report without tools listed %v, want the 3 profile defaults", quick["toolsUsed"])
	}

	if vulns, _ := r["vulnerabilities"].([]any); len(vulns) > 0 {
		vulnID, _ := vulns[0].(map[string]any)["id"].(string)
		if err := requireToolOK(ctx, s, "edit_vulnerability", map[string]any{
			"report_id": reportID, "vuln_id": vulnID, "severity": "low",
		}); err != nil {
			return err
		}
	}
	if err := requireToolOK(ctx, s, "rename_report", map[string]any{"id": reportID, "name": "Smoke Target"}); err != nil {
		return err
	}

	if err := requireToolOK(ctx, s, "finalize_report", map[string]any{"id": reportID}); err != nil {
		return err
	}
	return requireToolError(ctx, s, "rename_report", map[string]any{"id": reportID, "name": "Again"}, "rename after finalize")
}

// ---------------------------------------------------------------------------
// export_formats: every format renders
// ---------------------------------------------------------------------------

func scenarioExportFormats(ctx context.Context, s *mcp.ClientSession, _ string) error {
	if reportID == "" {
		return fmt.Errorf("no report; run report_lifecycle first")
	}
	for _, format := range []string{"html", "narrative", "csv", "json", "md", "pdf", "archive"} {
		res, err := callToolJSON(ctx, s, "export_report", map[string]any{"id": reportID, "format": format})
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		if size, _ := res["size"].(float64); size <= 0 {
			return fmt.Errorf("%s: empty export", format)
		}
	}
	return requireToolError(ctx, s, "export_report", map[string]any{"id": reportID, "format": "docx"}, "unknown format")
}

// ---------------------------------------------------------------------------
// error_handling: validation failures come back as tool errors
// ---------------------------------------------------------------------------

func scenarioErrorHandling(ctx context.Context, s *mcp.ClientSession, target string) error {
	cases := []struct {
		tool string
		args map[string]any
		desc string
	}{
		{"generate_report", map[string]any{"target": target, "tools": []string{"burp"}}, "unknown tool"},
		{"generate_report", map[string]any{"target": "ftp://x", "tools": []string{"zap"}}, "bad scheme"},
		{"generate_report", map[string]any{"target": target, "profile": "deep", "tools": []string{"zap"}}, "bad profile"},
		{"get_report", map[string]any{"id": "REP-404"}, "missing report"},
		{"finalize_report", map[string]any{"id": "REP-404", "gate": "no-such-gate"}, "unknown gate"},
		{"list_reports", map[string]any{"limit": -1}, "negative limit"},
	}
	for _, c := range cases {
		if err := requireToolError(ctx, s, c.tool, c.args, c.desc); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func requireToolOK(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) error {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if result.IsError {
		return fmt.Errorf("%s: tool error: %s", name, truncate(extractText(result), 300))
	}
	return nil
}

func requireToolError(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any, desc string) error {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil // protocol-level rejection is acceptable
	}
	if !result.IsError {
		return fmt.Errorf("NEG %s (%s): expected error, got %s", name, desc, truncate(extractText(result), 200))
	}
	return nil
}

func callToolJSON(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (map[string]any, error) {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("%s: tool error: %s", name, truncate(extractText(result), 300))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(extractText(result)), &out); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", name, err)
	}
	return out, nil
}

func callToolRaw(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(payload)})
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}

func resourceText(res *mcp.ReadResourceResult) string {
	if len(res.Contents) == 0 {
		return ""
	}
	return res.Contents[0].Text
}

func promptText(result *mcp.GetPromptResult) string {
	if len(result.Messages) == 0 {
		return ""
	}
	if tc, ok := result.Messages[0].Content.(*mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func startServer(ctx context.Context, port int, storeDir string) (*exec.Cmd, error) {
	root, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/cli", "mcp",
		"-http", fmt.Sprintf(":%d", port),
		"-store-path", storeDir,
		"-pacing=false",
		"-rate", "0",
	)
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func stopServer(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_, _ = cmd.Process.Wait()
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		modPath := dir + string(os.PathSeparator) + "go.mod"
		if data, err := os.ReadFile(modPath); err == nil {
			if strings.Contains(string(data), "module github.com/waftester/scanreport\n") ||
				strings.Contains(string(data), "module github.com/waftester/scanreport\r\n") {
				return dir, nil
			}
		}

		parent := dir[:max(strings.LastIndex(dir, string(os.PathSeparator)), 0)]
		if parent == dir || parent == "" {
			return "", fmt.Errorf("repo root not found walking up from %s", dir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, port int) error {
	client := &http.Client{Timeout: 2 * time.Second}
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
