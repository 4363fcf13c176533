// Package headless prints HTML reports to PDF through a headless Chrome
// driven by chromedp, for output identical to printing the HTML export
// from a browser.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/waftester/scanreport/pkg/defaults"
)

// ErrNoBrowser is returned when no Chrome or Chromium binary can be found.
var ErrNoBrowser = errors.New("headless: no chrome or chromium binary found")

// Options configures PDF rendering.
type Options struct {
	// ExecPath is the browser binary. Empty searches the usual names on PATH.
	ExecPath string

	// Timeout bounds the whole render (default: defaults.HeadlessTimeout).
	Timeout time.Duration

	// Paper size in inches (default: A4, 8.27 x 11.69).
	PaperWidth  float64
	PaperHeight float64

	// Landscape flips the page orientation.
	Landscape bool

	// NoSandbox disables the Chrome sandbox, needed when running as root
	// inside containers.
	NoSandbox bool

	// Logger receives browser lifecycle messages. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = defaults.HeadlessTimeout
	}
	if o.PaperWidth == 0 {
		o.PaperWidth = 8.27
	}
	if o.PaperHeight == 0 {
		o.PaperHeight = 11.69
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// browserNames are probed on PATH in order.
var browserNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// FindBrowser returns the first browser binary found on PATH, or "".
func FindBrowser() string {
	for _, name := range browserNames {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// allocatorOptions builds the exec allocator flags for a render.
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(opts.ExecPath),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(defaults.UserAgent("headless")),
	)
	if opts.NoSandbox {
		out = append(out, chromedp.Flag("no-sandbox", true))
	}
	return out
}

// RenderPDF loads html into a blank page and prints it with backgrounds,
// returning the PDF bytes.
func RenderPDF(ctx context.Context, html []byte, opts Options) ([]byte, error) {
	opts.applyDefaults()
	if opts.ExecPath == "" {
		opts.ExecPath = FindBrowser()
	}
	if opts.ExecPath == "" {
		return nil, ErrNoBrowser
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			opts.Logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "chromedp"))
		}))
	defer browserCancel()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				WithPaperWidth(opts.PaperWidth).
				WithPaperHeight(opts.PaperHeight).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("headless: render: %w", err)
	}

	opts.Logger.Debug("headless: rendered pdf",
		slog.Int("bytes", len(pdf)),
		slog.Duration("elapsed", time.Since(start)))
	return pdf, nil
}
