package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
)

// Palette. Severity colors match the HTML report defaults.
var (
	Primary   = lipgloss.Color("#3B82F6") // Blue - brand accent
	Secondary = lipgloss.Color("#00D4AA")

	Critical = lipgloss.Color("#DC2626")
	High     = lipgloss.Color("#EA580C")
	Medium   = lipgloss.Color("#CA8A04")
	Low      = lipgloss.Color("#16A34A")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
	Bright  = lipgloss.Color("#FAFAFA")
)

// Pre-configured styles
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Bold(true).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	ProgressFullStyle = lipgloss.NewStyle().
				Foreground(Primary)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3B3B4F"))

	StatValueStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Bold(true)

	BracketStyle = lipgloss.NewStyle().
			Foreground(Muted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	// Tool badge
	ToolStyle = lipgloss.NewStyle().
			Foreground(Bright).
			Background(lipgloss.Color("#3B3B4F")).
			Padding(0, 1)
)

// SeverityStyle returns the badge style for a severity tier.
func SeverityStyle(sev finding.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch sev {
	case finding.Critical:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Critical)
	case finding.High:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(High)
	case finding.Medium:
		return base.Foreground(lipgloss.Color("#000000")).Background(Medium)
	case finding.Low:
		return base.Foreground(lipgloss.Color("#000000")).Background(Low)
	default:
		return base.Foreground(Muted)
	}
}

// PortStateStyle colors a port state.
func PortStateStyle(state finding.PortState) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch state {
	case finding.PortOpen:
		return base.Foreground(Error)
	case finding.PortFiltered:
		return base.Foreground(Warning)
	default:
		return base.Foreground(Muted)
	}
}

// StatusStyle colors a report lifecycle status.
func StatusStyle(s report.Status) lipgloss.Style {
	if s == report.StatusFinalized {
		return SuccessStyle
	}
	return WarningStyle
}
