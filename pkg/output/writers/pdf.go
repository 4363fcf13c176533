package writers

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
)

// PDFWriter renders the report natively with fpdf. For a pixel-faithful
// print of the HTML report use the headless package instead.
type PDFWriter struct {
	opts Options
}

// NewPDFWriter creates a PDF writer.
func NewPDFWriter(opts Options) *PDFWriter {
	return &PDFWriter{opts: opts.withDefaults()}
}

func (pw *PDFWriter) Format() string      { return FormatPDF }
func (pw *PDFWriter) Extension() string   { return "pdf" }
func (pw *PDFWriter) ContentType() string { return "application/pdf" }

// pdfDoc bundles the document with the cp1252 translator the core fonts need.
type pdfDoc struct {
	*gofpdf.Fpdf
	tr     func(string) string
	accent [3]int
	opts   Options
}

// Write renders r.
func (pw *PDFWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	doc := &pdfDoc{
		Fpdf:   pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		accent: hexRGB(pw.opts.Branding.AccentColor),
		opts:   pw.opts,
	}
	pdf.SetTitle("Security Scan Report - "+r.ID, true)
	pdf.SetAuthor(pw.opts.Branding.CompanyName, true)
	pdf.SetCreator(generator(), true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(107, 114, 128)
		left, _, right, _ := pdf.GetMargins()
		pageW, _ := pdf.GetPageSize()
		textW := pageW - left - right - 20
		pdf.CellFormat(textW, 10, doc.fit(pw.opts.Branding.FooterText, textW), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	doc.cover(r)
	doc.summary(r)
	doc.ports(r)
	doc.headers(r)
	doc.vulnerabilities(r)
	doc.payloads(r)
	doc.details(r)
	doc.narrative(r)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func (d *pdfDoc) heading(text string) {
	d.Ln(4)
	d.SetFont("Helvetica", "B", 14)
	d.SetTextColor(d.accent[0], d.accent[1], d.accent[2])
	d.CellFormat(0, 9, d.tr(text), "", 1, "L", false, 0, "")
	d.SetTextColor(51, 51, 51)
}

func (d *pdfDoc) paragraph(text string) {
	d.SetFont("Helvetica", "", 10)
	d.SetTextColor(51, 51, 51)
	d.MultiCell(0, 5, d.tr(text), "", "L", false)
}

func (d *pdfDoc) tableHeader(widths []float64, cols ...string) {
	d.SetFont("Helvetica", "B", 9)
	d.SetFillColor(30, 41, 59)
	d.SetTextColor(255, 255, 255)
	for i, c := range cols {
		d.CellFormat(widths[i], 8, d.tr(c), "1", 0, "L", true, 0, "")
	}
	d.Ln(-1)
	d.SetFont("Helvetica", "", 9)
	d.SetTextColor(51, 51, 51)
}

// row writes one table row, truncating cells to their column width.
func (d *pdfDoc) row(widths []float64, cells ...string) {
	for i, c := range cells {
		d.CellFormat(widths[i], 7, d.fit(c, widths[i]-2), "1", 0, "L", false, 0, "")
	}
	d.Ln(-1)
}

func (d *pdfDoc) fit(s string, width float64) string {
	s = d.tr(s)
	if d.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && d.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func (d *pdfDoc) cover(r *report.ScanReport) {
	d.SetFont("Helvetica", "B", 22)
	d.SetTextColor(d.accent[0], d.accent[1], d.accent[2])
	d.CellFormat(0, 14, "Security Scan Report", "", 1, "C", false, 0, "")
	d.SetFont("Helvetica", "", 11)
	d.SetTextColor(80, 80, 80)
	if name := d.opts.Branding.CompanyName; name != "" {
		d.CellFormat(0, 6, d.tr(name), "", 1, "C", false, 0, "")
	}
	for _, line := range []string{
		"Target: " + r.TargetURL,
		"ID: " + r.ID,
		"Date: " + formatDate(r.ScanDate),
		"Status: " + string(r.ReportStatus),
	} {
		d.CellFormat(0, 6, d.tr(line), "", 1, "C", false, 0, "")
	}

	d.heading("Target Information")
	widths := []float64{50, 140}
	d.row(widths, "URL/Target", r.TargetURL)
	d.row(widths, "Scan Type", r.ScanType)
	d.row(widths, "Duration", formatScanTime(r.ScanTime))
	d.row(widths, "Tools Used", strings.Join(r.ToolsUsed, ", "))
}

func (d *pdfDoc) summary(r *report.ScanReport) {
	d.heading("Vulnerability Summary")
	widths := []float64{50, 30}
	d.tableHeader(widths, "Severity", "Count")
	for _, sev := range finding.Severities() {
		c := hexRGB(d.opts.Branding.SeverityColor(string(sev)))
		d.SetFont("Helvetica", "B", 9)
		d.SetTextColor(c[0], c[1], c[2])
		d.CellFormat(widths[0], 7, title(string(sev)), "1", 0, "L", false, 0, "")
		d.SetFont("Helvetica", "", 9)
		d.SetTextColor(51, 51, 51)
		d.CellFormat(widths[1], 7, strconv.Itoa(r.Summary.Count(sev)), "1", 0, "C", false, 0, "")
		d.Ln(-1)
	}
	d.SetFont("Helvetica", "B", 9)
	d.CellFormat(widths[0], 7, "Total", "1", 0, "L", false, 0, "")
	d.CellFormat(widths[1], 7, strconv.Itoa(r.Summary.Total), "1", 0, "C", false, 0, "")
	d.Ln(-1)
}

func (d *pdfDoc) ports(r *report.ScanReport) {
	d.heading("Port Scan Results")
	if len(r.PortScan) == 0 {
		d.paragraph("No port scan results available.")
		return
	}
	widths := []float64{25, 45, 35, 85}
	d.tableHeader(widths, "Port", "Service", "State", "Version")
	for _, p := range r.PortScan {
		d.row(widths, strconv.Itoa(p.Port), p.Service, string(p.State), p.Version)
	}
}

func (d *pdfDoc) headers(r *report.ScanReport) {
	d.heading("Security Headers Analysis")
	if len(r.SecurityHeaders) == 0 {
		d.paragraph("No security headers analysis available.")
		return
	}
	widths := []float64{55, 25, 45, 65}
	d.tableHeader(widths, "Header Name", "Status", "Value", "Recommendation")
	for _, h := range r.SecurityHeaders {
		status, value := "Missing", "N/A"
		if h.Present {
			status = "Present"
			if h.Value != "" {
				value = h.Value
			}
		}
		d.row(widths, h.Name, status, value, h.Recommendation)
	}
}

func (d *pdfDoc) vulnerabilities(r *report.ScanReport) {
	d.heading("Detected Vulnerabilities")
	if len(r.Vulnerabilities) == 0 {
		d.paragraph("No vulnerabilities detected.")
		return
	}
	widths := []float64{28, 24, 78, 60}
	d.tableHeader(widths, "ID", "Severity", "Name", "Location")
	for _, v := range r.Vulnerabilities {
		d.row(widths, v.ID, title(string(v.Severity)), v.Name, v.Location)
	}
}

func (d *pdfDoc) payloads(r *report.ScanReport) {
	if len(r.SuccessfulPayloads) == 0 {
		return
	}
	d.heading("Successful Injection Payloads")
	d.paragraph("The following payloads were confirmed to be successful during testing:")
	d.SetFont("Courier", "", 9)
	d.SetFillColor(254, 226, 226)
	for _, p := range r.SuccessfulPayloads {
		d.MultiCell(0, 6, d.tr(p), "", "L", true)
		d.Ln(1)
	}
	d.paragraph("These payloads should be fixed as a priority.")
}

func (d *pdfDoc) details(r *report.ScanReport) {
	if len(r.Vulnerabilities) == 0 {
		return
	}
	d.AddPage()
	d.heading("Detailed Findings")
	for _, v := range r.Vulnerabilities {
		c := hexRGB(d.opts.Branding.SeverityColor(string(v.Severity)))
		d.SetFont("Helvetica", "B", 11)
		d.SetTextColor(c[0], c[1], c[2])
		d.MultiCell(0, 6, d.tr(fmt.Sprintf("%s (%s)", v.Name, title(string(v.Severity)))), "", "L", false)
		d.field("Description", v.Description)
		d.field("Location", v.Location)
		if v.Payload != "" {
			d.field("Payload", v.Payload)
		}
		d.field("Remediation", v.Remediation)
		d.Ln(3)
	}
}

func (d *pdfDoc) field(label, value string) {
	d.SetFont("Helvetica", "B", 9)
	d.SetTextColor(51, 51, 51)
	d.CellFormat(0, 5, label, "", 1, "L", false, 0, "")
	d.SetFont("Helvetica", "", 9)
	d.MultiCell(0, 5, d.tr(value), "", "L", false)
}

var (
	blockTag = regexp.MustCompile(`(?i)</?(p|li|ul|ol|br|h[1-6]|div)[^>]*>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// plainText flattens an HTML fragment for the PDF body.
func plainText(fragment string) string {
	s := blockTag.ReplaceAllString(fragment, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func (d *pdfDoc) narrative(r *report.ScanReport) {
	n := r.Narrative
	if n == nil {
		return
	}
	d.AddPage()
	d.SetFont("Helvetica", "B", 18)
	d.SetTextColor(d.accent[0], d.accent[1], d.accent[2])
	d.MultiCell(0, 10, d.tr(n.Title), "", "C", false)
	for _, s := range []struct{ heading, body string }{
		{"Executive Summary", n.ExecutiveSummary},
		{"Methodology", n.Methodology},
		{"Findings", n.Findings},
		{"Conclusion", n.Conclusion},
		{"Recommendations", n.Recommendations},
	} {
		d.heading(s.heading)
		d.paragraph(plainText(s.body))
	}
}

// hexRGB parses "#rrggbb" or "#rgb". Anything else is gray.
func hexRGB(s string) [3]int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if len(s) != 6 || err != nil {
		return [3]int{107, 114, 128}
	}
	return [3]int{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}
