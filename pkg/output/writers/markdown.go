package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/templates"
)

var (
	mdOnce sync.Once
	mdTmpl *template.Template
	mdErr  error
)

func loadMarkdownTemplate() error {
	mdOnce.Do(func() {
		funcMap := sprig.TxtFuncMap()
		funcMap["title"] = title
		funcMap["md"] = escapeMarkdownCell
		mdTmpl, mdErr = template.New("markdown").Funcs(funcMap).ParseFS(templates.FS, templates.ReportMarkdown)
	})
	if mdErr != nil {
		return fmt.Errorf("parse markdown template: %w", mdErr)
	}
	return nil
}

var mdCellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

// escapeMarkdownCell keeps a value inside one table cell.
func escapeMarkdownCell(s string) string {
	return mdCellReplacer.Replace(s)
}

// MarkdownWriter renders a GitHub-flavoured Markdown report.
type MarkdownWriter struct {
	opts Options
}

// NewMarkdownWriter creates a Markdown writer.
func NewMarkdownWriter(opts Options) *MarkdownWriter {
	return &MarkdownWriter{opts: opts.withDefaults()}
}

func (mw *MarkdownWriter) Format() string      { return FormatMarkdown }
func (mw *MarkdownWriter) Extension() string   { return "md" }
func (mw *MarkdownWriter) ContentType() string { return "text/markdown; charset=utf-8" }

// Write renders r.
func (mw *MarkdownWriter) Write(w io.Writer, r *report.ScanReport) error {
	if err := checkReport(r); err != nil {
		return err
	}
	if err := loadMarkdownTemplate(); err != nil {
		return err
	}

	counts := make(map[string]int, 4)
	for _, sev := range finding.Severities() {
		counts[string(sev)] = r.Summary.Count(sev)
	}
	data := map[string]any{
		"Report":      r,
		"Counts":      counts,
		"ScanDate":    formatDate(r.ScanDate),
		"Duration":    formatScanTime(r.ScanTime),
		"FooterText":  mw.opts.Branding.FooterText,
		"Generator":   generator(),
		"GeneratedAt": formatDate(mw.opts.Now()),
	}
	if err := mdTmpl.ExecuteTemplate(w, "report.md.tmpl", data); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}
