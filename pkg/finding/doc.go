// Package finding provides the finding types carried by a synthetic scan
// report: vulnerabilities, port findings and security-header audit records.
//
// The types are plain values designed for JSON persistence. Field names
// follow the report data contract (camelCase keys) so stored reports stay
// readable by other consumers of the same format.
package finding
