package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/waftester/scanreport/pkg/finding"
)

// Profile selects how thorough a synthetic scan is.
type Profile string

const (
	Quick    Profile = "quick"
	Standard Profile = "standard"
	Full     Profile = "full"
)

// Profiles returns all profiles from lightest to heaviest.
func Profiles() []Profile {
	return []Profile{Quick, Standard, Full}
}

// ParseProfile converts a case-insensitive name into a Profile.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfile, s)
	}
	return p, nil
}

// IsValid reports whether p is a known profile.
func (p Profile) IsValid() bool {
	switch p {
	case Quick, Standard, Full:
		return true
	}
	return false
}

var titleCaser = cases.Title(language.English)

// Label returns the display label stored in ScanReport.ScanType,
// e.g. "Quick Scan".
func (p Profile) Label() string {
	return titleCaser.String(string(p)) + " Scan"
}

// tierBounds holds the exclusive upper bound of each tier's count.
var tierBounds = map[Profile]map[finding.Severity]int{
	Quick:    {finding.Critical: 2, finding.High: 3, finding.Medium: 4, finding.Low: 5},
	Standard: {finding.Critical: 3, finding.High: 5, finding.Medium: 7, finding.Low: 8},
	Full:     {finding.Critical: 5, finding.High: 8, finding.Medium: 10, finding.Low: 12},
}

// TierBound returns the exclusive upper bound on the number of findings of
// the given severity. Unknown inputs yield 0.
func (p Profile) TierBound(sev finding.Severity) int {
	return tierBounds[p][sev]
}

// ScanTimeRange returns the base and spread (seconds) of the simulated scan
// duration: base + floor(r*spread).
func (p Profile) ScanTimeRange() (base, spread int) {
	switch p {
	case Quick:
		return 300, 200
	case Standard:
		return 900, 500
	case Full:
		return 2500, 1500
	}
	return 0, 0
}

// DefaultTools returns the tool ids preselected for the profile.
func (p Profile) DefaultTools() []string {
	switch p {
	case Quick:
		return []string{"zap", "nmap", "securityheaders"}
	case Standard:
		return []string{"zap", "nikto", "nmap", "sqlmap", "xsstrike", "securityheaders", "sslyze"}
	case Full:
		return []string{"zap", "nikto", "w3af", "nmap", "sqlmap", "xsstrike", "jwt_tool", "securityheaders", "sslyze", "wafw00f", "testssl"}
	}
	return nil
}
