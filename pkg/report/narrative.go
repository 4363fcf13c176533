package report

import (
	"html"
	"regexp"
	"strings"
)

// Narrative is the free-form, author-edited part of a report. Section
// bodies are HTML fragments.
type Narrative struct {
	Title            string `json:"title"`
	ExecutiveSummary string `json:"executiveSummary"`
	Methodology      string `json:"methodology"`
	Findings         string `json:"findings"`
	Conclusion       string `json:"conclusion"`
	Recommendations  string `json:"recommendations"`
	Logo             string `json:"logo,omitempty"`
}

var importExt = regexp.MustCompile(`\.(html|pdf)$`)

// DefaultNarrative returns the starting narrative for r: boilerplate
// sections, a title naming the target, and a findings list built from the
// report's vulnerabilities.
func DefaultNarrative(r *ScanReport) Narrative {
	n := Narrative{
		Title:            "Security Assessment Report",
		ExecutiveSummary: "<p>This security assessment was conducted to identify vulnerabilities in the target system.</p>",
		Methodology:      "<p>The assessment utilized a combination of automated tools and manual testing techniques.</p>",
		Findings:         "<p>Key findings from the security assessment:</p>",
		Conclusion:       "<p>Based on the findings, the overall security posture of the target system requires attention.</p>",
		Recommendations:  "<p>It is recommended to address the identified vulnerabilities according to their severity levels.</p>",
	}
	if r == nil {
		return n
	}

	switch {
	case r.TargetURL != "":
		n.Title = "Security Assessment Report - " + r.TargetURL
	case r.ImportedFile != nil && r.ImportedFile.Name != "":
		n.Title = "Imported Report - " + importExt.ReplaceAllString(r.ImportedFile.Name, "")
	}

	if len(r.Vulnerabilities) > 0 {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, v := range r.Vulnerabilities {
			b.WriteString("<li><strong>")
			b.WriteString(html.EscapeString(v.Name))
			b.WriteString(" (")
			b.WriteString(html.EscapeString(v.Severity.String()))
			b.WriteString(")</strong><p>")
			b.WriteString(html.EscapeString(v.Description))
			b.WriteString("</p><p>Location: ")
			b.WriteString(html.EscapeString(v.Location))
			b.WriteString("</p><p>Remediation: ")
			b.WriteString(html.EscapeString(v.Remediation))
			b.WriteString("</p></li>")
		}
		b.WriteString("</ul>")
		n.Findings = b.String()
	}
	return n
}
