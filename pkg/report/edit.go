package report

import (
	"fmt"
	"strings"

	"github.com/waftester/scanreport/pkg/finding"
)

// EditVulnerability replaces the vulnerability whose ID matches v.ID and
// recomputes the summary.
func EditVulnerability(r *ScanReport, v finding.Vulnerability) error {
	if err := checkMutable(r); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	for i := range r.Vulnerabilities {
		if r.Vulnerabilities[i].ID == v.ID {
			r.Vulnerabilities[i] = v
			r.Summary = Summarize(r.Vulnerabilities)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrVulnerabilityNotFound, v.ID)
}

// Rename sets the report's target URL to name.
func Rename(r *ScanReport, name string) error {
	if err := checkMutable(r); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	r.TargetURL = name
	r.Summary = Summarize(r.Vulnerabilities)
	return nil
}

// Finalize marks the report as finalised. The transition is irreversible.
func Finalize(r *ScanReport) error {
	if err := checkMutable(r); err != nil {
		return err
	}
	r.Summary = Summarize(r.Vulnerabilities)
	r.Editable = false
	r.ReportStatus = StatusFinalized
	return nil
}

// SaveNarrative attaches n to the report. Saving a narrative returns the
// report to Draft.
func SaveNarrative(r *ScanReport, n Narrative) error {
	if err := checkMutable(r); err != nil {
		return err
	}
	r.Narrative = &n
	r.ReportStatus = StatusDraft
	r.Editable = true
	r.Summary = Summarize(r.Vulnerabilities)
	return nil
}

func checkMutable(r *ScanReport) error {
	if r.IsFinalized() {
		return fmt.Errorf("%w: %s", ErrReportFinalized, r.ID)
	}
	return nil
}
