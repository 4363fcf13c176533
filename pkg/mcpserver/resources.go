package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/gate"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/presets"
)

const reportURIPrefix = "scanreport://reports/"

// registerResources adds the read-only resources to the MCP server.
func (s *Server) registerResources() {
	s.addVersionResource()
	s.addToolsResource()
	s.addGatesResource()
	s.addReportResource()
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// scanreport://version
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addVersionResource() {
	const uri = "scanreport://version"
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uri,
			Name:        "ScanReport Version",
			Description: "Server version and capabilities.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonResource(uri, map[string]any{
				"name":    defaults.ToolNameDisplay,
				"version": defaults.Version,
				"tools": []string{
					"generate_report", "get_report", "list_reports", "edit_vulnerability",
					"rename_report", "finalize_report", "delete_report", "export_report",
					"dashboard", "list_tools",
				},
			})
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// scanreport://tools: scanner catalogue
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addToolsResource() {
	const uri = "scanreport://tools"
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uri,
			Name:        "Scanner Tool Catalogue",
			Description: "Tool ids accepted by generate_report and their display names.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonResource(uri, scan.Tools())
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// scanreport://gates: bundled gate scripts
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGatesResource() {
	const uri = "scanreport://gates"
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uri,
			Name:        "Finalize Gate Presets",
			Description: "Source of the bundled Tengo gate scripts usable as finalize_report 'gate'.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			type preset struct {
				Name   string `json:"name"`
				Script string `json:"script"`
			}
			var out []preset
			for _, name := range gate.Presets() {
				src, err := presets.FS.ReadFile(path.Join(presets.GateDir, name+".tengo"))
				if err != nil {
					return nil, fmt.Errorf("reading gate %s: %w", name, err)
				}
				out = append(out, preset{Name: name, Script: string(src)})
			}
			return jsonResource(uri, out)
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// scanreport://reports/{id}: one stored report
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addReportResource() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: reportURIPrefix + "{id}",
			Name:        "Stored Report",
			Description: "A stored report as JSON, e.g. scanreport://reports/REP-48213.",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			uri := req.Params.URI
			id := strings.TrimPrefix(uri, reportURIPrefix)
			if id == "" || id == uri {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			r, err := s.svc.Get(ctx, id)
			if err != nil {
				if errors.Is(err, history.ErrNotFound) || errors.Is(err, history.ErrInvalidID) {
					return nil, mcp.ResourceNotFoundError(uri)
				}
				return nil, err
			}
			return jsonResource(uri, r)
		},
	)
}
