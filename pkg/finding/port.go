package finding

import "fmt"

// PortState is the observed state of a port.
type PortState string

const (
	PortOpen     PortState = "open"
	PortFiltered PortState = "filtered"
	// PortClosed is produced during generation but never surfaced in a report.
	PortClosed PortState = "closed"
)

// IsValid reports whether s is a known port state.
func (s PortState) IsValid() bool {
	switch s {
	case PortOpen, PortFiltered, PortClosed:
		return true
	}
	return false
}

// ParsePortState converts a name into a PortState.
func ParsePortState(s string) (PortState, error) {
	st := PortState(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPortState, s)
	}
	return st, nil
}

// PortFinding is one row of the port scan table.
type PortFinding struct {
	Port    int       `json:"port"`
	Service string    `json:"service"`
	State   PortState `json:"state"`
	Version string    `json:"version"`
}

// SecurityHeader is the audit record for one HTTP security header.
type SecurityHeader struct {
	Name           string `json:"name"`
	Present        bool   `json:"present"`
	Value          string `json:"value,omitempty"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}
