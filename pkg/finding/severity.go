package finding

import (
	"fmt"
	"strings"
)

// Severity represents the tier of a synthetic vulnerability.
// All values are lowercase strings.
type Severity string

const (
	// Critical represents immediate system compromise (RCE, auth bypass).
	Critical Severity = "critical"

	// High represents significant impact requiring prompt fix (XSS, IDOR).
	High Severity = "high"

	// Medium represents moderate impact (cookie flags, CORS).
	Medium Severity = "medium"

	// Low represents limited impact (information disclosure, outdated libraries).
	Low Severity = "low"
)

// Severities returns the tiers in descending order of impact.
func Severities() []Severity {
	return []Severity{Critical, High, Medium, Low}
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
	return sev, nil
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Critical=4, High=3, Medium=2, Low=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// Code returns the single-letter tier code used in vulnerability IDs.
func (s Severity) Code() string {
	switch s {
	case Critical:
		return "C"
	case High:
		return "H"
	case Medium:
		return "M"
	case Low:
		return "L"
	default:
		return "?"
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}
