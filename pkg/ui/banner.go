// Package ui renders the CLI's terminal output: banner, status lines,
// scan progress and report tables. Everything goes to stderr unless
// SetOutput redirects it, so stdout stays clean for exported documents.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/waftester/scanreport/pkg/defaults"
)

// Build metadata, overridable via ldflags:
// go build -ldflags "-X github.com/waftester/scanreport/pkg/ui.Commit=abc123"
var (
	BuildDate = "2026-10-01"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	out         io.Writer = os.Stderr
	uiMu        sync.RWMutex
)

// SetOutput redirects all UI output. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	uiMu.Lock()
	defer uiMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// Output returns the current UI writer.
func Output() io.Writer {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return out
}

// SetSilent suppresses everything except errors.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const bannerArt = `
                                                      __
   ______________ _____  ________  ____  ____  _____/ /_
  / ___/ ___/ __ ` + "`" + `/ __ \/ ___/ _ \/ __ \/ __ \/ ___/ __/
 (__  ) /__/ /_/ / / / / /  /  __/ /_/ / /_/ / /  / /_
/____/\___/\__,_/_/ /_/_/   \___/ .___/\____/_/   \__/
                               /_/
`

const bannerSeparator = "________________________________________________________"

func printf(format string, args ...any) {
	fmt.Fprint(Output(), SanitizeString(fmt.Sprintf(format, args...)))
}

// PrintBanner prints the application banner with version info.
func PrintBanner() {
	if IsSilent() {
		return
	}
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			printf("%s\n", BannerStyle.Render(line))
		}
	}
	printf("                 %s v%s\n\n", defaults.ToolNameDisplay, VersionStyle.Render(defaults.Version))
}

// PrintDivider prints a muted rule.
func PrintDivider() {
	if IsSilent() {
		return
	}
	printf("%s\n", DividerStyle.Render(bannerSeparator))
}

// PrintSection prints a section header.
func PrintSection(title string) {
	if IsSilent() {
		return
	}
	printf("\n%s\n", SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintField prints one "label value" line of a detail view.
func PrintField(label, value string) {
	if IsSilent() {
		return
	}
	printf("  %s %s\n", LabelStyle.Render(label+":"), ValueStyle.Render(value))
}

// PrintHelp prints contextual help.
func PrintHelp(text string) {
	if IsSilent() {
		return
	}
	printf("%s\n", HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	if IsSilent() {
		return
	}
	printf("%s\n", SuccessStyle.Render("  "+Icon("✔", "[+]")+" "+message))
}

// PrintWarning prints a warning message.
func PrintWarning(message string) {
	if IsSilent() {
		return
	}
	printf("%s\n", WarningStyle.Render("  [!] "+message))
}

// PrintError prints an error message. Errors print even in silent mode.
func PrintError(message string) {
	printf("%s\n", FailStyle.Render("  [X] "+message))
}

// PrintInfo prints an info message.
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	printf("  %s %s\n", BannerStyle.Render("*"), message)
}
