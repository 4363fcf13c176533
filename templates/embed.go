// Package templates embeds the bundled report templates so exports work
// regardless of installation method. Writers fall back to these when no
// template override is configured.
//
// Usage:
//
//	data, _ := templates.FS.ReadFile("report/report.html.tmpl")
package templates

import "embed"

// FS contains the bundled report templates. Paths mirror the on-disk
// templates/ layout minus this Go file.
//
//go:embed report/*.tmpl
var FS embed.FS

// Paths of the bundled templates inside FS.
const (
	ReportHTML     = "report/report.html.tmpl"
	NarrativeHTML  = "report/narrative.html.tmpl"
	ReportMarkdown = "report/report.md.tmpl"
)
