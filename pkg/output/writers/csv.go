package writers

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/waftester/scanreport/pkg/report"
)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

var (
	csvVulnColumns    = []string{"ID", "Severity", "Name", "Location", "Payload", "Description", "Remediation"}
	csvPortColumns    = []string{"Port", "Service", "State", "Version"}
	csvHeaderColumns  = []string{"Header Name", "Present", "Value", "Recommendation"}
	csvPayloadColumns = []string{"Payload"}
)

// CSVWriter writes a report as CSV: the vulnerability table, then port,
// header and payload sections each preceded by a blank line pair and a
// title row. Sections with no rows are omitted.
type CSVWriter struct {
	opts Options
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(opts Options) *CSVWriter {
	return &CSVWriter{opts: opts.withDefaults()}
}

func (cw *CSVWriter) Format() string      { return FormatCSV }
func (cw *CSVWriter) Extension() string   { return "csv" }
func (cw *CSVWriter) ContentType() string { return "text/csv" }

// Write renders r.
func (cw *CSVWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	if cw.opts.ExcelCompatible {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
	}

	out := csv.NewWriter(w)
	cell := cw.cell

	if err := out.Write(csvVulnColumns); err != nil {
		return err
	}
	for _, v := range r.Vulnerabilities {
		row := []string{v.ID, string(v.Severity), cell(v.Name), cell(v.Location), cell(v.Payload), cell(v.Description), cell(v.Remediation)}
		if err := out.Write(row); err != nil {
			return err
		}
	}

	if len(r.PortScan) > 0 {
		if err := section(w, out, "Port Scan Results", csvPortColumns); err != nil {
			return err
		}
		for _, p := range r.PortScan {
			if err := out.Write([]string{strconv.Itoa(p.Port), cell(p.Service), string(p.State), cell(p.Version)}); err != nil {
				return err
			}
		}
	}

	if len(r.SecurityHeaders) > 0 {
		if err := section(w, out, "Security Headers Analysis", csvHeaderColumns); err != nil {
			return err
		}
		for _, h := range r.SecurityHeaders {
			present := "No"
			if h.Present {
				present = "Yes"
			}
			if err := out.Write([]string{h.Name, present, cell(h.Value), cell(h.Recommendation)}); err != nil {
				return err
			}
		}
	}

	if len(r.SuccessfulPayloads) > 0 {
		if err := section(w, out, "Successful Injection Payloads", csvPayloadColumns); err != nil {
			return err
		}
		for _, p := range r.SuccessfulPayloads {
			if err := out.Write([]string{cell(p)}); err != nil {
				return err
			}
		}
	}

	out.Flush()
	return out.Error()
}

// section flushes pending rows, writes two blank lines, then the title
// and column rows.
func section(w io.Writer, out *csv.Writer, title string, columns []string) error {
	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n\n"); err != nil {
		return err
	}
	if err := out.Write([]string{title}); err != nil {
		return err
	}
	return out.Write(columns)
}

func (cw *CSVWriter) cell(s string) string {
	if cw.opts.SanitizeFormulas {
		return sanitizeForCSV(s)
	}
	return s
}

// sanitizeForCSV prevents CSV injection by prefixing characters that
// spreadsheets treat as formula starters.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
