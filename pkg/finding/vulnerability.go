package finding

import "fmt"

// Vulnerability is a single synthetic finding.
type Vulnerability struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Remediation string   `json:"remediation"`
	Payload     string   `json:"payload,omitempty"`
}

// VulnerabilityID formats the identifier for the n-th (1-based) entry of a tier.
func VulnerabilityID(sev Severity, n int) string {
	return fmt.Sprintf("VULN-%s-%d", sev.Code(), n)
}

// Validate checks that the vulnerability carries an ID and a known severity.
func (v Vulnerability) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("finding: vulnerability id is empty")
	}
	if !v.Severity.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, v.Severity)
	}
	return nil
}
