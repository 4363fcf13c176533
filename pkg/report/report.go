package report

import (
	"slices"
	"strings"
	"time"

	"github.com/waftester/scanreport/pkg/finding"
)

// SchemaVersion is stamped on every report written by this module.
const SchemaVersion = 1

// ImportedScanType is the ScanType label of imported documents.
const ImportedScanType = "Imported Report"

// Status is the lifecycle state of a report.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusFinalized Status = "Finalized"
)

// Summary counts vulnerabilities per tier.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Count returns the count of one tier.
func (s Summary) Count(sev finding.Severity) int {
	switch sev {
	case finding.Critical:
		return s.Critical
	case finding.High:
		return s.High
	case finding.Medium:
		return s.Medium
	case finding.Low:
		return s.Low
	}
	return 0
}

// Add returns the element-wise sum of s and o.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Total:    s.Total + o.Total,
		Critical: s.Critical + o.Critical,
		High:     s.High + o.High,
		Medium:   s.Medium + o.Medium,
		Low:      s.Low + o.Low,
	}
}

// Summarize counts vulnerabilities by severity. Entries with an unknown
// severity are ignored so Total always equals the sum of the tiers.
func Summarize(vulns []finding.Vulnerability) Summary {
	var s Summary
	for _, v := range vulns {
		switch v.Severity {
		case finding.Critical:
			s.Critical++
		case finding.High:
			s.High++
		case finding.Medium:
			s.Medium++
		case finding.Low:
			s.Low++
		default:
			continue
		}
		s.Total++
	}
	return s
}

// ImportedFile describes the document an imported report was created from.
type ImportedFile struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	Size        int    `json:"size"`
	Pages       int    `json:"pages,omitempty"`
}

// ScanReport is the aggregate root produced by one synthetic scan.
type ScanReport struct {
	SchemaVersion      int                      `json:"schemaVersion"`
	ID                 string                   `json:"id"`
	TargetURL          string                   `json:"targetUrl"`
	ScanType           string                   `json:"scanType"`
	ScanDate           time.Time                `json:"scanDate"`
	ScanTime           int                      `json:"scanTime"`
	ToolsUsed          []string                 `json:"toolsUsed"`
	Vulnerabilities    []finding.Vulnerability  `json:"vulnerabilities"`
	PortScan           []finding.PortFinding    `json:"portScan"`
	SecurityHeaders    []finding.SecurityHeader `json:"securityHeaders"`
	SuccessfulPayloads []string                 `json:"successfulPayloads"`
	Summary            Summary                  `json:"summary"`
	Editable           bool                     `json:"editable"`
	ReportStatus       Status                   `json:"reportStatus"`
	ImportedFile       *ImportedFile            `json:"importedFile,omitempty"`
	Narrative          *Narrative               `json:"reportData,omitempty"`
}

// TypeKey returns the filter key for the report's scan type: the lowercased
// label without its " scan" suffix ("quick", "standard", "imported report").
func (r *ScanReport) TypeKey() string {
	return strings.TrimSuffix(strings.ToLower(r.ScanType), " scan")
}

// IsFinalized reports whether the report has been finalised.
func (r *ScanReport) IsFinalized() bool {
	return r.ReportStatus == StatusFinalized
}

// Vulnerability returns the vulnerability with the given id.
func (r *ScanReport) Vulnerability(id string) (finding.Vulnerability, bool) {
	for _, v := range r.Vulnerabilities {
		if v.ID == id {
			return v, true
		}
	}
	return finding.Vulnerability{}, false
}

// OpenPorts returns the number of ports in the open state.
func (r *ScanReport) OpenPorts() int {
	n := 0
	for _, p := range r.PortScan {
		if p.State == finding.PortOpen {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of r. A nil report clones to nil.
func (r *ScanReport) Clone() *ScanReport {
	if r == nil {
		return nil
	}
	c := *r
	c.ToolsUsed = slices.Clone(r.ToolsUsed)
	c.Vulnerabilities = slices.Clone(r.Vulnerabilities)
	c.PortScan = slices.Clone(r.PortScan)
	c.SecurityHeaders = slices.Clone(r.SecurityHeaders)
	c.SuccessfulPayloads = slices.Clone(r.SuccessfulPayloads)
	if r.ImportedFile != nil {
		f := *r.ImportedFile
		c.ImportedFile = &f
	}
	if r.Narrative != nil {
		n := *r.Narrative
		c.Narrative = &n
	}
	return &c
}
