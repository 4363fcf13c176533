package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/waftester/scanreport/pkg/config"
	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/gate"
	"github.com/waftester/scanreport/pkg/headless"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/output/writers"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/pkg/ui"
)

// userErrors are caused by arguments, configuration or report state, and
// exit with defaults.ExitUserError.
var userErrors = []error{
	scan.ErrMissingURL,
	scan.ErrInvalidURL,
	scan.ErrBadScheme,
	scan.ErrEmptyTarget,
	scan.ErrUnknownTool,
	report.ErrInvalidProfile,
	report.ErrReportFinalized,
	report.ErrVulnerabilityNotFound,
	report.ErrEmptyName,
	report.ErrUnsupportedImport,
	report.ErrImportTooLarge,
	report.ErrInvalidLogo,
	report.ErrLogoTooLarge,
	finding.ErrInvalidSeverity,
	history.ErrNotFound,
	history.ErrInvalidID,
	history.ErrUnknownBackend,
	config.ErrInvalidConfig,
	config.ErrMissingRequired,
	writers.ErrUnknownFormat,
	gate.ErrUnknownPreset,
	gate.ErrNoVerdict,
	headless.ErrNoBrowser,
	errUsage,
}

// errUsage marks a malformed command line.
var errUsage = errors.New("usage")

// exitCode maps err to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return defaults.ExitSuccess
	case errors.Is(err, scan.ErrGateFailed):
		return defaults.ExitGateFailed
	case errors.Is(err, errStore):
		return defaults.ExitStoreError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return defaults.ExitUserError
		}
	}
	return defaults.ExitInternalError
}

// exitWithError prints a formatted error message and exits with code.
// Use this instead of ui.PrintError + os.Exit for consistent CLI error handling.
func exitWithError(code int, format string, args ...any) {
	ui.PrintError(fmt.Sprintf(format, args...))
	os.Exit(code)
}

// exitWithUsage prints an error message followed by a usage hint, then exits.
func exitWithUsage(msg, usage string) {
	ui.PrintError(msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:", usage)
	os.Exit(defaults.ExitUserError)
}

// exitOnError exits with the code exitCode assigns to err. A nil err is a
// no-op.
func exitOnError(err error) {
	if err == nil {
		return
	}
	exitWithError(exitCode(err), "%v", err)
}
