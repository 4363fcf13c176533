// Package report defines the ScanReport aggregate and the operations that
// mutate it after generation: vulnerability edits, renaming, finalisation,
// narrative authoring and document import.
//
// Every mutation re-derives the severity summary so that
//
//	Summary.Total == Critical + High + Medium + Low == len(Vulnerabilities)
//
// holds after each call. Finalised reports reject all further mutation.
//
// Branding settings used by the exporters are loaded from YAML via
// LoadBranding.
package report
