// Package defaults provides canonical default values for the entire codebase.
// This is the single source of truth for runtime configuration defaults.
//
// Usage:
//
//	limiter := rate.NewLimiter(rate.Every(defaults.PacingQuick), 1)
//	name := defaults.ReportFilePrefix + "-" + target + ".html"
//
// Do not hardcode these values elsewhere; reference the constant instead.
package defaults

import (
	"fmt"
	"time"
)

// Version is the current scanreport version
const Version = "1.3.0"

// ToolName is the binary and service name.
const ToolName = "scanreport"

// ToolNameDisplay is the human-readable product name.
const ToolNameDisplay = "ScanReport"

// ============================================================================
// PROGRESS PACING
// ============================================================================
//
// Cosmetic delays between progress steps. A fresh scan advances in
// ProgressStep increments; a cache hit replays in CachedProgressStep
// increments.
// ============================================================================

const (
	// ProgressStep is the percentage advanced per step on a fresh scan (5)
	ProgressStep = 5

	// CachedProgressStep is the percentage advanced per step on a cache hit (10)
	CachedProgressStep = 10

	// PacingQuick is the delay per step for quick scans
	PacingQuick = 100 * time.Millisecond

	// PacingStandard is the delay per step for standard scans
	PacingStandard = 200 * time.Millisecond

	// PacingFull is the delay per step for full scans
	PacingFull = 300 * time.Millisecond

	// PacingCached is the delay per step when replaying a cached report
	PacingCached = 200 * time.Millisecond
)

// ============================================================================
// LIMITS
// ============================================================================

const (
	// MaxImportSize is the largest document accepted by import (10 MiB)
	MaxImportSize = 10 * 1024 * 1024

	// MaxLogoSize is the largest logo image accepted (2 MiB)
	MaxLogoSize = 2 * 1024 * 1024

	// RecentReports is how many reports the dashboard lists
	RecentReports = 5

	// ReportIDSpace is the exclusive upper bound of generated report numbers
	ReportIDSpace = 100000
)

// ============================================================================
// FILES & ENDPOINTS
// ============================================================================

const (
	// ReportFilePrefix prefixes every exported report file name
	ReportFilePrefix = "security-report"

	// StoreDir is the default report store directory under the user's home
	StoreDir = ".scanreport/reports"

	// ConfigFile is the default config file under the user's home
	ConfigFile = ".scanreport/config.yaml"

	// MetricsAddr is the default Prometheus listen address
	MetricsAddr = ":9464"

	// OTLPEndpoint is the default OTLP gRPC collector endpoint
	OTLPEndpoint = "localhost:4317"

	// MCPAddr is the default MCP HTTP listen address
	MCPAddr = ":8080"
)

// ============================================================================
// TIMEOUTS
// ============================================================================

const (
	// ShutdownTimeout bounds graceful shutdown of servers and exporters
	ShutdownTimeout = 5 * time.Second

	// ConnectTimeout bounds exporter connection setup
	ConnectTimeout = 10 * time.Second

	// HeadlessTimeout bounds one headless PDF render
	HeadlessTimeout = 60 * time.Second
)

// UserAgent returns the product identifier with optional context.
func UserAgent(context string) string {
	if context == "" {
		return ToolNameDisplay + "/" + Version
	}
	return fmt.Sprintf("%s/%s (%s)", ToolNameDisplay, Version, context)
}
