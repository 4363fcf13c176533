package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds the guided workflow prompts.
func (s *Server) registerPrompts() {
	s.addReviewReportPrompt()
}

// ═══════════════════════════════════════════════════════════════════════════
// review_report: generate, triage and finalize
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addReviewReportPrompt() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        "review_report",
			Description: "Generate a report for a target, triage its findings and finalize it behind a gate.",
			Arguments: []*mcp.PromptArgument{
				{Name: "target", Description: "Target URL (e.g. https://example.com)", Required: true},
				{Name: "profile", Description: "quick, standard or full (default standard)", Required: false},
				{Name: "gate", Description: "Gate preset for finalization (default no-critical)", Required: false},
			},
		},
		func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			target := req.Params.Arguments["target"]
			if target == "" {
				return nil, fmt.Errorf("'target' argument is required")
			}
			profile := req.Params.Arguments["profile"]
			if profile == "" {
				profile = "standard"
			}
			gateName := req.Params.Arguments["gate"]
			if gateName == "" {
				gateName = "no-critical"
			}

			return &mcp.GetPromptResult{
				Description: fmt.Sprintf("Report review: %s", target),
				Messages: []*mcp.PromptMessage{
					{
						Role: "user",
						Content: &mcp.TextContent{
							Text: fmt.Sprintf(`Prepare a security scan report for %s.

## Step 1: Generate
Call list_tools, pick the tools that fit a web application, then call generate_report with
target %q, profile %q and those tools.

## Step 2: Triage
Read the vulnerabilities. For each critical or high finding, decide whether the severity is
right for this target. Use edit_vulnerability to adjust severity or remediation text where needed.

## Step 3: Finalize
Call finalize_report with gate %q. If the gate rejects the report, explain which findings
block it and stop without finalizing.

## Step 4: Deliver
Call export_report with format "html" and summarize the totals for the user.`, target, target, profile, gateName),
						},
					},
				},
			}, nil
		},
	)
}
