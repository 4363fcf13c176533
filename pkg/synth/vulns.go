package synth

import (
	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/seedrand"
)

// SynthesizeVulnerabilities fabricates the tiered findings for target.
// Tier counts are drawn first (critical, high, medium, low), each as
// floor(r*bound) with the profile's bound. Entries are then built tier by
// tier: a name draw per entry, plus a fresh payload sample per critical
// entry.
func SynthesizeVulnerabilities(target string, profile report.Profile, src seedrand.Source) ([]finding.Vulnerability, report.Summary) {
	counts := make(map[finding.Severity]int, len(tiers))
	for _, t := range tiers {
		counts[t.Severity] = seedrand.Intn(src, profile.TierBound(t.Severity))
	}

	vulns := make([]finding.Vulnerability, 0)
	for _, t := range tiers {
		for i := 0; i < counts[t.Severity]; i++ {
			v := finding.Vulnerability{
				ID:          finding.VulnerabilityID(t.Severity, i+1),
				Name:        t.Names[seedrand.Intn(src, len(t.Names))],
				Severity:    t.Severity,
				Location:    target + t.PathSuffix,
				Description: t.Description,
				Remediation: t.Remediation,
			}
			switch t.Severity {
			case finding.Critical:
				v.Payload = SamplePayloads(src)[0]
			case finding.High:
				if i%2 == 0 {
					v.Payload = XSSPayload
				}
			}
			vulns = append(vulns, v)
		}
	}
	return vulns, report.Summarize(vulns)
}
