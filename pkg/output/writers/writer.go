// Package writers renders stored scan reports into downloadable documents:
// HTML, CSV, JSON, Markdown, PDF and a compressed JSON archive.
//
// Every writer is stateless apart from its options, so one instance can be
// shared across goroutines.
package writers

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/report"
)

// Sentinel errors.
var (
	ErrUnknownFormat = errors.New("writers: unknown format")
	ErrNilReport     = errors.New("writers: nil report")
)

// Format names accepted by ForFormat.
const (
	FormatHTML      = "html"
	FormatNarrative = "narrative"
	FormatCSV       = "csv"
	FormatJSON      = "json"
	FormatMarkdown  = "md"
	FormatPDF       = "pdf"
	FormatArchive   = "archive"
)

// Writer renders one report.
type Writer interface {
	// Format is the name the writer is registered under.
	Format() string
	// Extension is the file extension without the leading dot.
	Extension() string
	// ContentType is the MIME type of the output.
	ContentType() string
	// Write renders r to w.
	Write(w io.Writer, r *report.ScanReport) error
}

// Options carries settings shared by all writers.
type Options struct {
	// Branding customises colors, logo and footer. Nil means defaults.
	Branding *report.Branding

	// SanitizeFormulas guards CSV cells against spreadsheet formula injection.
	SanitizeFormulas bool

	// ExcelCompatible prefixes CSV output with a UTF-8 BOM.
	ExcelCompatible bool

	// Now stamps the "generated on" line. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Branding == nil {
		o.Branding = report.DefaultBranding()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Formats lists the registered format names.
func Formats() []string {
	return []string{FormatHTML, FormatNarrative, FormatCSV, FormatJSON, FormatMarkdown, FormatPDF, FormatArchive}
}

// ForFormat returns the writer registered under format. "markdown" is
// accepted as an alias of "md".
func ForFormat(format string, opts Options) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatHTML:
		return NewHTMLWriter(opts), nil
	case FormatNarrative:
		return NewNarrativeWriter(opts), nil
	case FormatCSV:
		return NewCSVWriter(opts), nil
	case FormatJSON:
		return NewJSONWriter(), nil
	case FormatMarkdown, "markdown":
		return NewMarkdownWriter(opts), nil
	case FormatPDF:
		return NewPDFWriter(opts), nil
	case FormatArchive:
		return NewArchiveWriter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename returns the download name for r, e.g.
// "security-report-https://example.com.html". Whitespace runs in the
// target become a single dash.
func Filename(r *report.ScanReport, ext string) string {
	target := ""
	if r != nil {
		target = whitespaceRun.ReplaceAllString(r.TargetURL, "-")
	}
	return defaults.ReportFilePrefix + "-" + target + "." + strings.TrimPrefix(ext, ".")
}

func checkReport(r *report.ScanReport) error {
	if r == nil {
		return ErrNilReport
	}
	return nil
}
