package scan

import "errors"

// Validation errors carry the message shown to the user verbatim.
var (
	ErrMissingURL = errors.New("please enter a URL")
	ErrInvalidURL = errors.New("invalid URL format")
	ErrBadScheme  = errors.New("URL must start with http:// or https://")
)

var (
	// ErrEmptyTarget is returned by Orchestrator.Run for an empty target.
	ErrEmptyTarget = errors.New("scan: empty target")

	// ErrUnknownTool is returned for a tool id missing from the catalogue.
	ErrUnknownTool = errors.New("scan: unknown tool")

	// ErrGateFailed is returned when a finalize gate rejects a report.
	ErrGateFailed = errors.New("scan: gate rejected report")
)
