// Package presets embeds the bundled report gate scripts so they are
// available regardless of installation method.
//
// Usage:
//
//	data, _ := presets.FS.ReadFile("gates/no-critical.tengo")
package presets

import "embed"

// FS contains the bundled gate scripts under gates/. Each script reads the
// report counters and sets pass, optionally with a reason.
//
//go:embed gates/*.tengo
var FS embed.FS

// GateDir is the directory of gate scripts inside FS.
const GateDir = "gates"
