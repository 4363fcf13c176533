// Package seedrand provides the reproducible randomness used by report
// synthesis: a 31-multiplier string hash, a small linear congruential
// generator seeded from that hash, and a Source abstraction so effectful
// generators can be driven by a fixed sequence in tests.
//
// The generator is intentionally weak. Its only job is reproducibility.
package seedrand
