package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Branding customises exported reports per organisation.
// It is loaded from YAML so teams can keep it next to their CI config.
type Branding struct {
	// CompanyName appears in the report header
	CompanyName string `yaml:"company_name" json:"company_name"`

	// Logo is a data URI, or a path to an image file resolved by LoadBranding
	Logo string `yaml:"logo" json:"logo,omitempty"`

	// AccentColor is the primary brand color (hex, e.g., "#0f172a")
	AccentColor string `yaml:"accent_color" json:"accent_color"`

	// FooterText appears at the bottom of each page
	FooterText string `yaml:"footer_text" json:"footer_text"`

	// ContactEmail for security questions
	ContactEmail string `yaml:"contact_email" json:"contact_email,omitempty"`

	// PrintOptimized drops screen-only styling for print/PDF
	PrintOptimized bool `yaml:"print_optimized" json:"print_optimized"`

	// SeverityColors overrides per-severity colors keyed by severity name
	SeverityColors map[string]string `yaml:"severity_colors" json:"severity_colors,omitempty"`
}

// DefaultBranding returns the built-in branding.
func DefaultBranding() *Branding {
	return &Branding{
		CompanyName: "Security Assessment",
		AccentColor: "#0F172A",
		FooterText:  "This report was generated automatically. Findings should be verified before remediation.",
		SeverityColors: map[string]string{
			"critical": "#dc2626",
			"high":     "#ea580c",
			"medium":   "#ca8a04",
			"low":      "#2563eb",
		},
	}
}

// LoadBranding reads a YAML branding file and merges it over the defaults.
// A Logo given as a file path is read relative to the YAML file and
// converted to a data URI.
func LoadBranding(path string) (*Branding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override Branding
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("report: parse branding %s: %w", path, err)
	}

	if override.Logo != "" && !strings.HasPrefix(override.Logo, "data:") {
		logoPath := override.Logo
		if !filepath.IsAbs(logoPath) {
			logoPath = filepath.Join(filepath.Dir(path), logoPath)
		}
		uri, err := LoadLogo(logoPath)
		if err != nil {
			return nil, err
		}
		override.Logo = uri
	}

	b := MergeBranding(DefaultBranding(), &override)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// SaveBranding writes a branding config to a YAML file.
func SaveBranding(b *Branding, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// MergeBranding copies the non-empty fields of override into base.
func MergeBranding(base, override *Branding) *Branding {
	if override == nil {
		return base
	}
	if override.CompanyName != "" {
		base.CompanyName = override.CompanyName
	}
	if override.Logo != "" {
		base.Logo = override.Logo
	}
	if override.AccentColor != "" {
		base.AccentColor = override.AccentColor
	}
	if override.FooterText != "" {
		base.FooterText = override.FooterText
	}
	if override.ContactEmail != "" {
		base.ContactEmail = override.ContactEmail
	}
	// PrintOptimized is only ever switched on by an override.
	base.PrintOptimized = base.PrintOptimized || override.PrintOptimized
	for k, v := range override.SeverityColors {
		if base.SeverityColors == nil {
			base.SeverityColors = make(map[string]string)
		}
		base.SeverityColors[strings.ToLower(k)] = v
	}
	return base
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks colors are hex values and the logo, if any, is a data URI.
func (b *Branding) Validate() error {
	var errs []error
	if b.AccentColor != "" && !hexColor.MatchString(b.AccentColor) {
		errs = append(errs, fmt.Errorf("accent_color %q is not a hex color", b.AccentColor))
	}
	for sev, c := range b.SeverityColors {
		if !hexColor.MatchString(c) {
			errs = append(errs, fmt.Errorf("severity_colors.%s %q is not a hex color", sev, c))
		}
	}
	if b.Logo != "" && !strings.HasPrefix(b.Logo, "data:image/") {
		errs = append(errs, fmt.Errorf("logo must be an image data URI"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("report: invalid branding: %w", errors.Join(errs...))
	}
	return nil
}

// SeverityColor returns the configured color for a severity, or gray.
func (b *Branding) SeverityColor(sev string) string {
	if c, ok := b.SeverityColors[strings.ToLower(sev)]; ok {
		return c
	}
	return "#6b7280"
}
