// Package synth fabricates the contents of a synthetic scan report.
//
// Port profiles are seeded from the target so the same target always
// yields the same ports. Header audits, payload samples and vulnerability
// tiers draw from a caller-supplied seedrand.Source; production callers
// pass seedrand.Unseeded() and tests pass a fixed sequence.
//
// The catalogue tables in catalogue.go are fixed data. Their order is part
// of the output contract and must not be changed.
package synth
