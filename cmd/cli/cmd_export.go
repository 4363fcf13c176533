package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/waftester/scanreport/pkg/headless"
	"github.com/waftester/scanreport/pkg/output/writers"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/ui"
)

// PDF rendering engines for export -format pdf.
const (
	engineFPDF   = "fpdf"
	engineChrome = "chrome"
)

type exportOptions struct {
	format    string
	output    string
	engine    string
	browser   string
	noSandbox bool
	excel     bool
	sanitize  bool
}

// runExport renders a stored report to a file, or to stdout with -o -.
//
//	scanreport export REP-48213 -format pdf -engine chrome
func runExport(args []string) error {
	var opts exportOptions
	a, positional, err := setup("export", args, func(fs *flag.FlagSet) {
		fs.StringVar(&opts.format, "format", writers.FormatHTML, "Format: "+strings.Join(writers.Formats(), ", "))
		fs.StringVar(&opts.output, "o", "", `Output file (default security-report-<target>.<ext>, "-" for stdout)`)
		fs.StringVar(&opts.engine, "engine", engineFPDF, "PDF engine: fpdf (built in) or chrome (headless print of the HTML export)")
		fs.StringVar(&opts.browser, "chrome", "", "Chrome or Chromium binary for -engine chrome (default: search PATH)")
		fs.BoolVar(&opts.noSandbox, "no-sandbox", false, "Disable the Chrome sandbox (containers running as root)")
		fs.BoolVar(&opts.excel, "excel", false, "Prefix CSV output with a UTF-8 BOM for Excel")
		fs.BoolVar(&opts.sanitize, "sanitize", true, "Prefix CSV cells starting with = + - @ with ' (-sanitize=false for plain CSV)")
	})
	if err != nil {
		return err
	}
	defer a.close()

	id, err := oneArg(positional, "report id")
	if err != nil {
		return err
	}
	if opts.engine != engineFPDF && opts.engine != engineChrome {
		return fmt.Errorf("%w: unknown PDF engine %q", errUsage, opts.engine)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := a.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	data, ext, err := a.render(ctx, r, opts)
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	path := opts.output
	if path == "" {
		path = writers.Filename(r, ext)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Wrote %s (%d bytes)", path, len(data)))
	return nil
}

// render returns the exported bytes and the file extension.
func (a *app) render(ctx context.Context, r *report.ScanReport, opts exportOptions) ([]byte, string, error) {
	wopts := writers.Options{
		Branding:         a.branding,
		SanitizeFormulas: opts.sanitize,
		ExcelCompatible:  opts.excel,
	}

	if strings.EqualFold(opts.format, writers.FormatPDF) && opts.engine == engineChrome {
		html, err := renderWith(writers.FormatHTML, wopts, r)
		if err != nil {
			return nil, "", err
		}
		pdf, err := headless.RenderPDF(ctx, html, headless.Options{
			ExecPath:  opts.browser,
			NoSandbox: opts.noSandbox,
			Logger:    a.logger,
		})
		if err != nil {
			return nil, "", err
		}
		return pdf, "pdf", nil
	}

	w, err := writers.ForFormat(opts.format, wopts)
	if err != nil {
		return nil, "", err
	}
	data, err := write(w, r)
	return data, w.Extension(), err
}

func renderWith(format string, opts writers.Options, r *report.ScanReport) ([]byte, error) {
	w, err := writers.ForFormat(format, opts)
	if err != nil {
		return nil, err
	}
	return write(w, r)
}

func write(w writers.Writer, r *report.ScanReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
