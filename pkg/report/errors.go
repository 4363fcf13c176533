package report

import "errors"

var (
	// ErrReportFinalized is returned when mutating a finalised report.
	ErrReportFinalized = errors.New("report: report is finalized")

	// ErrVulnerabilityNotFound is returned when an edit names an unknown vulnerability id.
	ErrVulnerabilityNotFound = errors.New("report: vulnerability not found")

	// ErrInvalidProfile is returned for a scan profile other than quick, standard or full.
	ErrInvalidProfile = errors.New("report: invalid scan profile")

	// ErrEmptyName is returned when renaming a report to an empty name.
	ErrEmptyName = errors.New("report: name is empty")

	// ErrUnsupportedImport is returned for imports that are neither HTML nor PDF.
	ErrUnsupportedImport = errors.New("report: unsupported import type (want PDF or HTML)")

	// ErrImportTooLarge is returned for imports above defaults.MaxImportSize.
	ErrImportTooLarge = errors.New("report: import file too large")

	// ErrInvalidLogo is returned when a logo is not an image.
	ErrInvalidLogo = errors.New("report: logo must be an image")

	// ErrLogoTooLarge is returned for logos above defaults.MaxLogoSize.
	ErrLogoTooLarge = errors.New("report: logo file too large")
)
