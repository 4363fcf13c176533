package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ScanProgress draws the cosmetic progress of a report generation. On a
// terminal it redraws one line in place; otherwise it prints a line at
// every quarter so logs stay readable.
type ScanProgress struct {
	w           io.Writer
	title       string
	width       int
	interactive bool

	mu        sync.Mutex
	start     time.Time
	percent   int
	cached    bool
	milestone int
	done      bool
}

// NewScanProgress creates a progress display writing to the UI output.
func NewScanProgress(title string) *ScanProgress {
	w := Output()
	return newScanProgress(w, title, IsTerminal(w))
}

func newScanProgress(w io.Writer, title string, interactive bool) *ScanProgress {
	return &ScanProgress{
		w:           w,
		title:       title,
		width:       30,
		interactive: interactive,
		start:       time.Now(),
	}
}

// Update records a progress step. Its signature matches scan.ProgressFunc
// so it can be passed as the orchestrator's OnProgress callback.
func (p *ScanProgress) Update(percent int, cached bool) {
	if IsSilent() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	percent = max(0, min(percent, 100))
	p.percent = percent
	p.cached = cached

	if p.interactive {
		fmt.Fprintf(p.w, "\r%s", p.line())
		return
	}
	for p.milestone < 4 && percent >= (p.milestone+1)*25 {
		p.milestone++
		fmt.Fprintln(p.w, p.line())
	}
}

// Done ends the display, leaving the final line on screen.
func (p *ScanProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	if p.interactive && p.percent > 0 {
		fmt.Fprintln(p.w)
	}
}

// Percent returns the last recorded percentage.
func (p *ScanProgress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

func (p *ScanProgress) line() string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(p.title)
	b.WriteString(" ")
	b.WriteString(p.bar())
	fmt.Fprintf(&b, " %3d%%", p.percent)
	b.WriteString(BracketStyle.Render(" [" + formatElapsed(time.Since(p.start)) + "]"))
	if p.cached {
		b.WriteString(BracketStyle.Render(" [cached]"))
	}
	return SanitizeString(b.String())
}

func (p *ScanProgress) bar() string {
	filled := p.percent * p.width / 100
	full, empty := "#", "-"
	if UnicodeTerminal() {
		full, empty = "█", "░"
	}
	return ProgressFullStyle.Render(strings.Repeat(full, filled)) +
		ProgressEmptyStyle.Render(strings.Repeat(empty, p.width-filled))
}

// formatElapsed renders d as "4.2s" or "1m05s".
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
