package synth

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/seedrand"
)

var semver = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GeneratePorts returns the port profile of target, sorted by port.
// The result depends only on target.
//
// 80 and 443 are always open, 22 appears 90% of the time, and 5 to 10
// catalogue slots are then examined. A slot whose port is already present
// or whose state draw comes out closed is consumed without producing a row.
func GeneratePorts(target string) []finding.PortFinding {
	rng := seedrand.ForTarget(target)

	results := []finding.PortFinding{
		{Port: 80, Service: "http", State: finding.PortOpen, Version: "Apache httpd 2.4.41"},
		{Port: 443, Service: "https", State: finding.PortOpen, Version: "nginx 1.18.0"},
	}
	if rng.Next() < 0.9 {
		version := "OpenSSH 8.2p1"
		if rng.Next() < 0.3 {
			version += " Ubuntu Linux"
		}
		results = append(results, finding.PortFinding{Port: 22, Service: "ssh", State: finding.PortOpen, Version: version})
	}

	additional := seedrand.Intn(rng, 6) + 5
	shuffled := CommonPorts()
	shuffle(rng, shuffled)

	for i := 0; i < additional && i < len(shuffled); i++ {
		p := shuffled[i]
		switch p.Port {
		case 80, 443, 22:
			continue
		}

		state := drawPortState(rng)
		if state == finding.PortClosed {
			continue
		}

		version := p.DefaultVersion
		if rng.Next() < 0.4 {
			major := seedrand.Intn(rng, 10) + 1
			minor := seedrand.Intn(rng, 10)
			patch := seedrand.Intn(rng, 20)
			version = replaceFirst(semver, version, fmt.Sprintf("%d.%d.%d", major, minor, patch))
		}

		results = append(results, finding.PortFinding{
			Port:    p.Port,
			Service: p.Service,
			State:   state,
			Version: version,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Port < results[j].Port })
	return results
}

func drawPortState(src seedrand.Source) finding.PortState {
	switch v := src.Next(); {
	case v < 0.7:
		return finding.PortOpen
	case v < 0.9:
		return finding.PortFiltered
	default:
		return finding.PortClosed
	}
}

// shuffle is an in-place Fisher-Yates driven by src.
func shuffle[T any](src seedrand.Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := seedrand.Intn(src, i+1)
		s[i], s[j] = s[j], s[i]
	}
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
