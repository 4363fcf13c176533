package writers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/report"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

func sampleReport() *report.ScanReport {
	vulns := []finding.Vulnerability{
		{
			ID:          "VULN-C-1",
			Name:        `Test "Quoted" Name`,
			Severity:    finding.Critical,
			Location:    "/api/login",
			Description: "SQL injection, via the username field",
			Remediation: "Use parameterized queries",
			Payload:     "' OR 1=1 --",
		},
		{
			ID:          "VULN-L-1",
			Name:        "Server banner disclosure",
			Severity:    finding.Low,
			Location:    "/",
			Description: "=HYPERLINK(\"http://evil\")",
			Remediation: "Hide the banner",
		},
	}
	return &report.ScanReport{
		SchemaVersion:   report.SchemaVersion,
		ID:              "REP-12345",
		TargetURL:       "https://example.com",
		ScanType:        "Quick Scan",
		ScanDate:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ScanTime:        125,
		ToolsUsed:       []string{"ZAP", "Nmap"},
		Vulnerabilities: vulns,
		PortScan: []finding.PortFinding{
			{Port: 443, Service: "https", State: finding.PortOpen, Version: "nginx 1.18.0"},
			{Port: 8080, Service: "http-proxy", State: finding.PortFiltered, Version: "Unknown"},
		},
		SecurityHeaders: []finding.SecurityHeader{
			{Name: "Strict-Transport-Security", Present: true, Value: "max-age=31536000", Recommendation: "Keep HSTS enabled"},
			{Name: "Content-Security-Policy", Present: false, Recommendation: "Add a CSP"},
		},
		SuccessfulPayloads: []string{"<script>alert(1)</script>"},
		Summary:            report.Summarize(vulns),
		Editable:           true,
		ReportStatus:       report.StatusDraft,
	}
}

func render(t *testing.T, w Writer, r *report.ScanReport) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, r))
	return buf.Bytes()
}

func TestFilename(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	assert.Equal(t, "security-report-https://example.com.html", Filename(r, "html"))

	r.TargetURL = "Production  API\tv2"
	assert.Equal(t, "security-report-Production-API-v2.csv", Filename(r, ".csv"))
	assert.Equal(t, "security-report-.json", Filename(nil, "json"))
}

func TestForFormat(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		w, err := ForFormat(f, Options{})
		require.NoError(t, err, f)
		assert.Equal(t, f, w.Format())
		assert.NotEmpty(t, w.Extension())
		assert.NotEmpty(t, w.ContentType())
	}

	w, err := ForFormat("Markdown", Options{})
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, w.Format())

	_, err = ForFormat("docx", Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWritersRejectNilReport(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		w, err := ForFormat(f, Options{})
		require.NoError(t, err)
		assert.ErrorIs(t, w.Write(&bytes.Buffer{}, nil), ErrNilReport, f)
	}
}

func TestCSVSections(t *testing.T) {
	t.Parallel()

	out := string(render(t, NewCSVWriter(Options{}), sampleReport()))

	lines := strings.Split(out, "\n")
	assert.Equal(t, "ID,Severity,Name,Location,Payload,Description,Remediation", lines[0])
	assert.Contains(t, out, `"Test ""Quoted"" Name"`)
	assert.Contains(t, out, "\n\n\nPort Scan Results\nPort,Service,State,Version\n443,https,open,nginx 1.18.0\n")
	assert.Contains(t, out, "\n\n\nSecurity Headers Analysis\nHeader Name,Present,Value,Recommendation\n")
	assert.Contains(t, out, "Strict-Transport-Security,Yes,max-age=31536000,Keep HSTS enabled\n")
	assert.Contains(t, out, "Content-Security-Policy,No,,Add a CSP\n")
	assert.Contains(t, out, "\n\n\nSuccessful Injection Payloads\nPayload\n<script>alert(1)</script>\n")
}

func TestCSVVulnerabilityRowsParse(t *testing.T) {
	t.Parallel()

	out := render(t, NewCSVWriter(Options{}), sampleReport())
	head := strings.SplitN(string(out), "\n\n", 2)[0]

	rows, err := csv.NewReader(strings.NewReader(head)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"VULN-C-1", "critical", `Test "Quoted" Name`, "/api/login", "' OR 1=1 --", "SQL injection, via the username field", "Use parameterized queries"}, rows[1])
}

func TestCSVOmitsEmptySections(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.PortScan = nil
	r.SecurityHeaders = nil
	r.SuccessfulPayloads = nil
	out := string(render(t, NewCSVWriter(Options{}), r))

	assert.NotContains(t, out, "Port Scan Results")
	assert.NotContains(t, out, "Security Headers Analysis")
	assert.NotContains(t, out, "Successful Injection Payloads")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestCSVSanitizeAndBOM(t *testing.T) {
	t.Parallel()

	out := string(render(t, NewCSVWriter(Options{SanitizeFormulas: true, ExcelCompatible: true}), sampleReport()))
	assert.True(t, strings.HasPrefix(out, utf8BOM))
	assert.Contains(t, out, `"'=HYPERLINK(""http://evil"")"`)

	plain := string(render(t, NewCSVWriter(Options{}), sampleReport()))
	assert.Contains(t, plain, `"=HYPERLINK(""http://evil"")"`)
}

func TestSanitizeForCSV(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":        "",
		"=1+1":    "'=1+1",
		"+cmd":    "'+cmd",
		"-2":      "'-2",
		"@SUM":    "'@SUM",
		"\tx":     "'\tx",
		"plain":   "plain",
		"' OR 1=": "' OR 1=",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeForCSV(in), "input %q", in)
	}
}

func TestHTMLReport(t *testing.T) {
	t.Parallel()

	out := string(render(t, NewHTMLWriter(Options{Now: fixedNow}), sampleReport()))

	for _, want := range []string{
		"<title>Security Scan Report - REP-12345</title>",
		"<h2>Target Information</h2>",
		"<h2>Vulnerability Summary</h2>",
		"<h2>Tools Used</h2>",
		`<span class="tool-badge">ZAP</span>`,
		"<h2>Port Scan Results</h2>",
		`<td class="open">open</td>`,
		`<td class="filtered">filtered</td>`,
		"<h2>Security Headers Analysis</h2>",
		`<td class="missing">Missing</td>`,
		"<td>N/A</td>",
		"<h2>Detected Vulnerabilities</h2>",
		`<span class="severity critical">Critical</span>`,
		"<h2>Successful Injection Payloads</h2>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"<h2>Detailed Findings</h2>",
		"<p>2 minutes 5 seconds</p>",
		"Generated on: 2026-03-04 05:06:07 UTC",
		".critical { background-color: #dc2626; }",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.NotContains(t, out, "Company Logo")
}

func TestHTMLEmptySections(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.PortScan = nil
	r.SecurityHeaders = nil
	r.SuccessfulPayloads = nil
	out := string(render(t, NewHTMLWriter(Options{}), r))

	assert.Contains(t, out, "No port scan results available.")
	assert.Contains(t, out, "No security headers analysis available.")
	assert.NotContains(t, out, "Successful Injection Payloads")
}

func TestHTMLLogoAndNarrative(t *testing.T) {
	t.Parallel()

	logo, err := report.LogoDataURI(pngPixel)
	require.NoError(t, err)

	r := sampleReport()
	n := report.DefaultNarrative(r)
	n.ExecutiveSummary = "<p>All <em>good</em></p>"
	n.Logo = logo
	r.Narrative = &n

	out := string(render(t, NewHTMLWriter(Options{}), r))
	assert.Contains(t, out, `src="`+logo+`"`)
	assert.Contains(t, out, "<h2>Security Assessment Report - https://example.com</h2>")
	assert.Contains(t, out, "<p>All <em>good</em></p>")
}

func TestHTMLIgnoresNonDataLogo(t *testing.T) {
	t.Parallel()

	b := report.DefaultBranding()
	b.Logo = "javascript:alert(1)"
	out := string(render(t, NewHTMLWriter(Options{Branding: b}), sampleReport()))
	assert.NotContains(t, out, "javascript:")
}

func TestNarrativeWriter(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	out := string(render(t, NewNarrativeWriter(Options{Now: fixedNow}), r))

	assert.Contains(t, out, "<title>Security Assessment Report - https://example.com - Security Report</title>")
	for _, h := range []string{"Executive Summary", "Methodology", "Findings", "Conclusion", "Recommendations"} {
		assert.Contains(t, out, "<h2>"+h+"</h2>")
	}
	assert.Contains(t, out, "Date: 2026-03-04")
	assert.Contains(t, out, "<li><strong>Test &#34;Quoted&#34; Name (critical)</strong>")
	assert.Nil(t, r.Narrative, "writer must not attach a narrative to the caller's report")
}

func TestJSONWriterRoundTrip(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	out := render(t, NewJSONWriter(), r)
	assert.True(t, bytes.HasSuffix(out, []byte("}\n")))
	assert.Contains(t, string(out), "\n  \"id\": \"REP-12345\"")

	var back report.ScanReport
	require.NoError(t, jsonutil.Unmarshal(out, &back))
	assert.Equal(t, r, &back)
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Vulnerabilities[1].Name = "Pipe | inside"
	out := string(render(t, NewMarkdownWriter(Options{Now: fixedNow}), r))

	for _, want := range []string{
		"# Security Scan Report",
		"| Target | https://example.com |",
		"| Duration | 2 minutes 5 seconds |",
		"| Critical | 1 | `#` |",
		"| High | 0 | `` |",
		"| **Total** | **2** | |",
		"ZAP, Nmap",
		"| 443 | https | open | nginx 1.18.0 |",
		"| Content-Security-Policy | Missing | N/A | Add a CSP |",
		`| VULN-L-1 | Low | Pipe \| inside | / |`,
		"- `<script>alert(1)</script>`",
		"### Test \"Quoted\" Name (Critical)",
		"_Generated by ScanReport",
	} {
		assert.Contains(t, out, want)
	}
}

func TestMarkdownWriterEmptyReport(t *testing.T) {
	t.Parallel()

	r, err := report.Import("shop_example_com.html", []byte("<html></html>"), fixedNow())
	require.NoError(t, err)
	out := string(render(t, NewMarkdownWriter(Options{}), r))

	assert.Contains(t, out, "Document Import")
	assert.Contains(t, out, "_No port scan results available._")
	assert.Contains(t, out, "_No vulnerabilities detected._")
	assert.NotContains(t, out, "## Detailed Findings")
}

func TestPDFWriterProducesValidPDF(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	n := report.DefaultNarrative(r)
	r.Narrative = &n
	out := render(t, NewPDFWriter(Options{Now: fixedNow}), r)

	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	require.NoError(t, pdfapi.Validate(bytes.NewReader(out), nil))
	pages, err := pdfapi.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 3)
}

func TestPDFWriterEmptyReport(t *testing.T) {
	t.Parallel()

	r, err := report.Import("example_com.html", []byte("<html></html>"), fixedNow())
	require.NoError(t, err)
	out := render(t, NewPDFWriter(Options{}), r)

	pages, err := pdfapi.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	out := render(t, NewArchiveWriter(), r)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, out[:4])

	back, err := ReadArchive(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, r, back)

	_, err = ReadArchive(strings.NewReader("not zstd"))
	assert.Error(t, err)
}

func TestFormatScanTime(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		0:    "0 seconds",
		45:   "45 seconds",
		60:   "1 minute",
		61:   "1 minute 1 second",
		125:  "2 minutes 5 seconds",
		3600: "1 hour",
		3720: "1 hour 2 minutes",
		7260: "2 hours 1 minute",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatScanTime(in), "seconds %d", in)
	}
}

func TestHexRGB(t *testing.T) {
	t.Parallel()

	assert.Equal(t, [3]int{220, 38, 38}, hexRGB("#dc2626"))
	assert.Equal(t, [3]int{255, 0, 0}, hexRGB("#f00"))
	assert.Equal(t, [3]int{107, 114, 128}, hexRGB("red"))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got := plainText("<p>One &amp; two</p><ul><li>three</li></ul>")
	assert.Equal(t, "One & two\n\nthree", got)
}

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
