package writers

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/finding"
)

var titleCase = cases.Title(language.English)

// title upper-cases the first letter of each word ("critical" -> "Critical").
func title(s string) string {
	return titleCase.String(s)
}

const dateLayout = "2006-01-02 15:04:05 MST"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(dateLayout)
}

// formatScanTime renders a duration in seconds as "1 minute 5 seconds".
// Above an hour the seconds are dropped.
func formatScanTime(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 3600:
		minutes, rest := seconds/60, seconds%60
		s := plural(minutes, "minute")
		if rest > 0 {
			s += " " + plural(rest, "second")
		}
		return s
	default:
		hours, minutes := seconds/3600, (seconds%3600)/60
		s := plural(hours, "hour")
		if minutes > 0 {
			s += " " + plural(minutes, "minute")
		}
		return s
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func portClass(s finding.PortState) string {
	switch s {
	case finding.PortOpen:
		return "open"
	case finding.PortFiltered:
		return "filtered"
	}
	return "closed"
}

func generator() string {
	return defaults.ToolNameDisplay + " " + defaults.Version
}
