// Package gate evaluates Tengo scripts that decide whether a report may be
// finalized. Scripts run in a sandboxed VM with only safe stdlib modules and
// see the report's counters as globals:
//
//	critical, high, medium, low, total, ports_open
//
// A script must assign the bool pass and may assign the string reason:
//
//	pass := critical == 0
//	reason := pass ? "" : "critical findings remain"
package gate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/presets"
)

// Sentinel errors.
var (
	ErrNoVerdict     = errors.New("gate: script did not set a bool 'pass'")
	ErrUnknownPreset = errors.New("gate: unknown preset")
)

// safeModules are the only Tengo stdlib modules available to scripts.
// No file I/O, no network, no OS access.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math")

const maxAllocs = 1_000_000

// Compile-time interface check.
var _ scan.Gate = (*Gate)(nil)

// Gate is a compiled gate script. It is safe for concurrent use; each
// evaluation runs on a clone of the compiled program.
type Gate struct {
	name     string
	compiled *tengo.Compiled
}

// Result is the verdict of one evaluation.
type Result struct {
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

// Compile compiles src. name identifies the gate in errors.
func Compile(name string, src []byte) (*Gate, error) {
	script := tengo.NewScript(src)
	script.SetImports(safeModules)
	script.SetMaxAllocs(maxAllocs)
	for _, v := range []string{"critical", "high", "medium", "low", "total", "ports_open"} {
		if err := script.Add(v, 0); err != nil {
			return nil, fmt.Errorf("gate %s: %w", name, err)
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile gate %s: %w", name, err)
	}
	return &Gate{name: name, compiled: compiled}, nil
}

// Load compiles the script at path.
func Load(path string) (*Gate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gate script %s: %w", path, err)
	}
	return Compile(path, data)
}

// Preset compiles one of the bundled gates by name, e.g. "no-critical".
func Preset(name string) (*Gate, error) {
	data, err := presets.FS.ReadFile(path.Join(presets.GateDir, name+".tengo"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Compile(name, data)
}

// Presets lists the bundled gate names in sorted order.
func Presets() []string {
	entries, err := fs.ReadDir(presets.FS, presets.GateDir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".tengo"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads ref as a bundled preset name when one matches, otherwise
// as a script path.
func Resolve(ref string) (*Gate, error) {
	if g, err := Preset(ref); err == nil {
		return g, nil
	}
	return Load(ref)
}

// Name returns the gate's name.
func (g *Gate) Name() string { return g.name }

// Evaluate runs the script against r.
func (g *Gate) Evaluate(ctx context.Context, r *report.ScanReport) (Result, error) {
	c := g.compiled.Clone()
	vars := map[string]int{
		"critical":   r.Summary.Critical,
		"high":       r.Summary.High,
		"medium":     r.Summary.Medium,
		"low":        r.Summary.Low,
		"total":      r.Summary.Total,
		"ports_open": r.OpenPorts(),
	}
	for k, v := range vars {
		if err := c.Set(k, v); err != nil {
			return Result{}, fmt.Errorf("gate %s: set %s: %w", g.name, k, err)
		}
	}
	if err := c.RunContext(ctx); err != nil {
		return Result{}, fmt.Errorf("run gate %s: %w", g.name, err)
	}

	pass := c.Get("pass")
	if pass.ValueType() != "bool" {
		return Result{}, fmt.Errorf("%w (gate %s)", ErrNoVerdict, g.name)
	}
	res := Result{Pass: pass.Bool()}
	if reason := c.Get("reason"); !reason.IsUndefined() {
		res.Reason = reason.String()
	}
	return res, nil
}

// Check implements scan.Gate. A failing verdict is reported as an error
// wrapping scan.ErrGateFailed.
func (g *Gate) Check(ctx context.Context, r *report.ScanReport) error {
	res, err := g.Evaluate(ctx, r)
	if err != nil {
		return err
	}
	if res.Pass {
		return nil
	}
	if res.Reason == "" {
		return fmt.Errorf("%w: %s", scan.ErrGateFailed, g.name)
	}
	return fmt.Errorf("%w: %s: %s", scan.ErrGateFailed, g.name, res.Reason)
}
