package finding

import "errors"

// Sentinel errors for finding validation.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidSeverity indicates a severity string outside the four tiers.
	ErrInvalidSeverity = errors.New("finding: invalid severity")

	// ErrInvalidPortState indicates a port state other than open, filtered or closed.
	ErrInvalidPortState = errors.New("finding: invalid port state")
)
