package synth

import "github.com/waftester/scanreport/pkg/seedrand"

// SamplePayloads draws 2 to 4 distinct payloads from the pool without
// replacement.
func SamplePayloads(src seedrand.Source) []string {
	count := 2 + seedrand.Intn(src, 3)
	remaining := PayloadPool()
	out := make([]string, 0, count)
	for i := 0; i < count && len(remaining) > 0; i++ {
		idx := seedrand.Intn(src, len(remaining))
		out = append(out, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return out
}
