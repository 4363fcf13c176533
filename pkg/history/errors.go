package history

import "errors"

var (
	// ErrNotFound is returned when no report has the requested id.
	ErrNotFound = errors.New("history: report not found")

	// ErrInvalidID is returned for ids that cannot name a stored report.
	ErrInvalidID = errors.New("history: invalid report id")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("history: unknown store backend")
)
