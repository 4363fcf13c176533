package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// The SDK defines LoggingLevel as a raw string type without constants.
const (
	logInfo mcp.LoggingLevel = "info"
)

// ErrNoService is returned by New when Config.Service is nil.
var ErrNoService = errors.New("mcpserver: report service is required")

// Config holds MCP server configuration.
type Config struct {
	// Orchestrator generates reports. Defaults to one with a private cache
	// that does not persist.
	Orchestrator *scan.Orchestrator

	// Service reads and edits stored reports. Required.
	Service *scan.Service

	// Branding is applied by export_report. Nil means defaults.
	Branding *report.Branding

	// RateLimit caps HTTP requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64

	// Burst is the limiter bucket size (default: 2x RateLimit, at least 1).
	Burst int

	Logger *slog.Logger
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wraps the MCP server with report functionality.
type Server struct {
	mcp      *mcp.Server
	orch     *scan.Orchestrator
	svc      *scan.Service
	branding *report.Branding
	limiter  *rate.Limiter
	logger   *slog.Logger
	ready    atomic.Bool
}

// New creates a server with all tools, resources, and prompts registered.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, ErrNoService
	}
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = scan.NewOrchestrator(scan.Options{Logger: cfg.Logger})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		orch:     cfg.Orchestrator,
		svc:      cfg.Service,
		branding: cfg.Branding,
		logger:   cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit*2))
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   defaults.ToolNameDisplay + " MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s, nil
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady signals that startup finished. Until then /health returns 503.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady returns true once MarkReady has been called.
func (s *Server) IsReady() bool { return s.ready.Load() }

// RunStdio runs the MCP server over stdio transport. This is the mode used
// by IDE integrations.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("mcp: serving on stdio")
	s.MarkReady()
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport.
//
// The handler mounts:
//   - /health → readiness/liveness probe (GET only, never rate limited)
//   - /mcp    → streamable HTTP transport
//   - /       → streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	limited := s.rateLimit(streamable)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", limited)
	mux.Handle("/", limited)

	return corsMiddleware(s.recoveryMiddleware(securityHeaders(mux)))
}

// handleHealth serves a readiness/liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"` + defaults.ToolName + `-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"` + defaults.ToolName + `-mcp"}`))
}

// rateLimit rejects requests over the configured rate with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for browser-based MCP clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if origin == "" {
			// Non-browser client; "*" with credentials is not allowed.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns handler panics into a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("mcp: panic in HTTP handler",
					slog.Any("panic", err),
					slog.String("stack", string(debug.Stack())))

				// If headers were already sent, WriteHeader is a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders prevents MIME sniffing and framing.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Helpers: result builders
// ---------------------------------------------------------------------------

// notifyProgress sends a progress notification if the request carried a
// progress token. Safe to call when session/token is nil.
func notifyProgress(ctx context.Context, req *mcp.CallToolRequest, progress, total float64, message string) {
	token := req.Params.GetProgressToken()
	if token == nil || req.Session == nil {
		return
	}
	// Advisory; a failed notification does not affect the tool call.
	_ = req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// logToSession sends a structured log message to the MCP client.
func logToSession(ctx context.Context, req *mcp.CallToolRequest, level mcp.LoggingLevel, data any) {
	if req.Session == nil {
		return
	}
	_ = req.Session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: defaults.ToolName,
		Data:   data,
	})
}

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an error CallToolResult with a plain message.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// enrichedError creates a structured error with recovery guidance for AI
// agents, in the same JSON envelope style as the success responses.
func enrichedError(msg string, recoverySteps []string) *mcp.CallToolResult {
	type errResponse struct {
		Error         string   `json:"error"`
		RecoverySteps []string `json:"recovery_steps"`
	}
	data, _ := jsonutil.MarshalIndent(errResponse{
		Error:         msg,
		RecoverySteps: recoverySteps,
	}, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

const serverInstructions = `ScanReport generates synthetic web security scan reports and manages them.

Typical workflow:
1. list_tools to see the selectable scanner names, profiles and gate presets.
2. generate_report with a target URL, a profile (quick, standard, full) and tools.
   Submitting the same target and profile again returns the same report.
3. get_report / list_reports / dashboard to review stored reports.
4. edit_vulnerability and rename_report while the report is a Draft.
5. finalize_report locks the report; pass gate (e.g. "no-critical") to require a passing policy first.
6. export_report renders html, narrative, csv, json, md, pdf or archive.

Reports are synthetic: no traffic is sent to the target.`
