package writers

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/templates"
)

var htmlFuncs = template.FuncMap{
	"title":     title,
	"portClass": portClass,
}

var (
	htmlOnce      sync.Once
	htmlReport    *template.Template
	htmlNarrative *template.Template
	htmlErr       error
)

// loadHTMLTemplates parses the embedded templates once per process.
func loadHTMLTemplates() error {
	htmlOnce.Do(func() {
		htmlReport, htmlErr = template.New("report").Funcs(htmlFuncs).ParseFS(templates.FS, templates.ReportHTML)
		if htmlErr != nil {
			return
		}
		htmlNarrative, htmlErr = template.New("narrative").Funcs(htmlFuncs).ParseFS(templates.FS, templates.NarrativeHTML)
	})
	if htmlErr != nil {
		return fmt.Errorf("parse html template: %w", htmlErr)
	}
	return nil
}

// narrativeView carries narrative sections as trusted HTML. Sections are
// authored through the report editor and stored as HTML fragments.
type narrativeView struct {
	Title            string
	ExecutiveSummary template.HTML
	Methodology      template.HTML
	Findings         template.HTML
	Conclusion       template.HTML
	Recommendations  template.HTML
}

func newNarrativeView(n *report.Narrative) *narrativeView {
	if n == nil {
		return nil
	}
	return &narrativeView{
		Title:            n.Title,
		ExecutiveSummary: template.HTML(n.ExecutiveSummary),
		Methodology:      template.HTML(n.Methodology),
		Findings:         template.HTML(n.Findings),
		Conclusion:       template.HTML(n.Conclusion),
		Recommendations:  template.HTML(n.Recommendations),
	}
}

type htmlData struct {
	Report      *report.ScanReport
	Branding    *report.Branding
	Logo        template.URL
	Accent      template.CSS
	Colors      map[string]template.CSS
	ScanDate    string
	Duration    string
	GeneratedAt string
	Generator   string
	Narrative   *narrativeView
}

func (o Options) htmlData(r *report.ScanReport) htmlData {
	b := o.Branding
	colors := make(map[string]template.CSS, 4)
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		colors[sev] = template.CSS(b.SeverityColor(sev))
	}
	return htmlData{
		Report:      r,
		Branding:    b,
		Logo:        logoFor(r, b),
		Accent:      template.CSS(b.AccentColor),
		Colors:      colors,
		ScanDate:    formatDate(r.ScanDate),
		Duration:    formatScanTime(r.ScanTime),
		GeneratedAt: formatDate(o.Now()),
		Generator:   generator(),
		Narrative:   newNarrativeView(r.Narrative),
	}
}

// logoFor prefers the narrative's logo over the branding logo. Only data
// URIs are trusted as image sources.
func logoFor(r *report.ScanReport, b *report.Branding) template.URL {
	logo := b.Logo
	if r.Narrative != nil && r.Narrative.Logo != "" {
		logo = r.Narrative.Logo
	}
	if !strings.HasPrefix(logo, "data:image/") {
		return ""
	}
	return template.URL(logo)
}

// HTMLWriter renders the full printable report.
type HTMLWriter struct {
	opts Options
}

// NewHTMLWriter creates an HTML writer.
func NewHTMLWriter(opts Options) *HTMLWriter {
	return &HTMLWriter{opts: opts.withDefaults()}
}

func (hw *HTMLWriter) Format() string      { return FormatHTML }
func (hw *HTMLWriter) Extension() string   { return "html" }
func (hw *HTMLWriter) ContentType() string { return "text/html; charset=utf-8" }

// Write renders r.
func (hw *HTMLWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	if err := loadHTMLTemplates(); err != nil {
		return err
	}
	if err := htmlReport.ExecuteTemplate(w, "report.html.tmpl", hw.opts.htmlData(r)); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

type narrativeSection struct {
	Heading string
	Body    template.HTML
}

// NarrativeWriter renders the author-edited narrative as a standalone
// document, one page per section. Reports without a narrative get the
// default one.
type NarrativeWriter struct {
	opts Options
}

// NewNarrativeWriter creates a narrative writer.
func NewNarrativeWriter(opts Options) *NarrativeWriter {
	return &NarrativeWriter{opts: opts.withDefaults()}
}

func (nw *NarrativeWriter) Format() string      { return FormatNarrative }
func (nw *NarrativeWriter) Extension() string   { return "html" }
func (nw *NarrativeWriter) ContentType() string { return "text/html; charset=utf-8" }

// Write renders the narrative of r.
func (nw *NarrativeWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	if err := loadHTMLTemplates(); err != nil {
		return err
	}

	if r.Narrative == nil {
		n := report.DefaultNarrative(r)
		r = r.Clone()
		r.Narrative = &n
	}
	view := newNarrativeView(r.Narrative)
	now := nw.opts.Now()
	data := struct {
		Narrative     *narrativeView
		Logo          template.URL
		Accent        template.CSS
		Sections      [][]narrativeSection
		GeneratedDate string
		GeneratedAt   string
	}{
		Narrative: view,
		Logo:      logoFor(r, nw.opts.Branding),
		Accent:    template.CSS(nw.opts.Branding.AccentColor),
		Sections: [][]narrativeSection{
			{{Heading: "Methodology", Body: view.Methodology}},
			{{Heading: "Findings", Body: view.Findings}},
			{{Heading: "Conclusion", Body: view.Conclusion}, {Heading: "Recommendations", Body: view.Recommendations}},
		},
		GeneratedDate: now.Format("2006-01-02"),
		GeneratedAt:   formatDate(now),
	}
	if err := htmlNarrative.ExecuteTemplate(w, "narrative.html.tmpl", data); err != nil {
		return fmt.Errorf("render narrative: %w", err)
	}
	return nil
}
