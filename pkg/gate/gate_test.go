package gate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
)

func reportWith(critical, high, medium, low int, openPorts int) *report.ScanReport {
	r := &report.ScanReport{
		Summary: report.Summary{
			Total:    critical + high + medium + low,
			Critical: critical,
			High:     high,
			Medium:   medium,
			Low:      low,
		},
	}
	for i := 0; i < openPorts; i++ {
		r.PortScan = append(r.PortScan, finding.PortFinding{Port: 8000 + i, State: finding.PortOpen})
	}
	r.PortScan = append(r.PortScan, finding.PortFinding{Port: 9999, State: finding.PortFiltered})
	return r
}

func TestEvaluateSeesCounters(t *testing.T) {
	t.Parallel()

	g, err := Compile("counters", []byte(`
fmt := import("fmt")
pass := true
reason := fmt.sprintf("%d/%d/%d/%d total=%d ports=%d", critical, high, medium, low, total, ports_open)
`))
	require.NoError(t, err)

	res, err := g.Evaluate(context.Background(), reportWith(1, 2, 3, 4, 2))
	require.NoError(t, err)
	assert.True(t, res.Pass)
	assert.Equal(t, "1/2/3/4 total=10 ports=2", res.Reason)
}

func TestCheckWrapsGateFailed(t *testing.T) {
	t.Parallel()

	g, err := Compile("no-crit", []byte(`pass := critical == 0
reason := "criticals open"`))
	require.NoError(t, err)

	err = g.Check(context.Background(), reportWith(1, 0, 0, 0, 0))
	require.ErrorIs(t, err, scan.ErrGateFailed)
	assert.Contains(t, err.Error(), "no-crit: criticals open")

	assert.NoError(t, g.Check(context.Background(), reportWith(0, 5, 0, 0, 0)))
}

func TestCheckWithoutReason(t *testing.T) {
	t.Parallel()

	g, err := Compile("bare", []byte(`pass := false`))
	require.NoError(t, err)
	err = g.Check(context.Background(), reportWith(0, 0, 0, 0, 0))
	require.ErrorIs(t, err, scan.ErrGateFailed)
	assert.Equal(t, "scan: gate rejected report: bare", err.Error())
}

func TestMissingVerdict(t *testing.T) {
	t.Parallel()

	for name, src := range map[string]string{
		"unset":    `x := 1`,
		"not bool": `pass := 1`,
		"string":   `pass := "yes"`,
	} {
		g, err := Compile(name, []byte(src))
		require.NoError(t, err, name)
		_, err = g.Evaluate(context.Background(), reportWith(0, 0, 0, 0, 0))
		assert.ErrorIs(t, err, ErrNoVerdict, name)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	_, err := Compile("syntax", []byte(`pass := (`))
	assert.Error(t, err)

	_, err = Compile("os", []byte(`os := import("os")
pass := true`))
	assert.Error(t, err, "os module must not be importable")
}

func TestRuntimeError(t *testing.T) {
	t.Parallel()

	g, err := Compile("div", []byte(`pass := (1 / critical) > 0`))
	require.NoError(t, err)
	_, err = g.Evaluate(context.Background(), reportWith(0, 0, 0, 0, 0))
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"baseline", "no-critical", "strict"}, Presets())

	ctx := context.Background()
	tests := []struct {
		preset string
		r      *report.ScanReport
		pass   bool
	}{
		{"no-critical", reportWith(0, 3, 3, 3, 5), true},
		{"no-critical", reportWith(1, 0, 0, 0, 0), false},
		{"strict", reportWith(0, 0, 4, 4, 2), true},
		{"strict", reportWith(0, 1, 0, 0, 0), false},
		{"strict", reportWith(0, 0, 0, 0, 3), false},
		{"baseline", reportWith(0, 2, 3, 4, 0), true},
		{"baseline", reportWith(0, 3, 3, 3, 0), false},
	}
	for _, tt := range tests {
		g, err := Preset(tt.preset)
		require.NoError(t, err)
		res, err := g.Evaluate(ctx, tt.r)
		require.NoError(t, err)
		assert.Equal(t, tt.pass, res.Pass, "%s %+v", tt.preset, tt.r.Summary)
		if !res.Pass {
			assert.NotEmpty(t, res.Reason)
		}
	}

	_, err := Preset("lenient")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestLoadAndResolve(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.tengo")
	require.NoError(t, os.WriteFile(path, []byte(`pass := total < 3`), 0o644))

	g, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, g.Name())
	assert.NoError(t, g.Check(context.Background(), reportWith(1, 1, 0, 0, 0)))

	g, err = Resolve("strict")
	require.NoError(t, err)
	assert.Equal(t, "strict", g.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.tengo"))
	assert.Error(t, err)
}

func TestConcurrentEvaluate(t *testing.T) {
	t.Parallel()

	g, err := Preset("no-critical")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(crit int) {
			defer wg.Done()
			res, err := g.Evaluate(context.Background(), reportWith(crit, 0, 0, 0, 0))
			assert.NoError(t, err)
			assert.Equal(t, crit == 0, res.Pass)
		}(i % 2)
	}
	wg.Wait()
}
