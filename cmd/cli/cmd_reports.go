package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/finding"
	"github.com/waftester/scanreport/pkg/gate"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/iohelper"
	"github.com/waftester/scanreport/pkg/jsonutil"
	"github.com/waftester/scanreport/pkg/output/writers"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/pkg/ui"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// runReports lists stored reports, newest first.
func runReports(args []string) error {
	var (
		f       history.Filter
		status  string
		jsonOut bool
	)
	a, _, err := setup("reports", args, func(fs *flag.FlagSet) {
		fs.StringVar(&f.Type, "type", "", `Filter by scan type: quick, standard, full, "imported report"`)
		fs.StringVar(&status, "status", "", "Filter by status: Draft, Finalized")
		fs.StringVar(&f.Search, "search", "", "Filter by target or id substring")
		fs.IntVar(&f.Limit, "limit", 0, "Show at most this many reports")
		fs.BoolVar(&jsonOut, "json", false, "Print JSON on stdout")
	})
	if err != nil {
		return err
	}
	defer a.close()

	f.Status = report.Status(status)
	reports, err := a.svc.List(context.Background(), f)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(os.Stdout, reports)
	}
	ui.PrintReportList(os.Stdout, reports)
	return nil
}

// runShow prints one stored report.
func runShow(args []string) error {
	var jsonOut bool
	a, positional, err := setup("show", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&jsonOut, "json", false, "Print JSON on stdout")
	})
	if err != nil {
		return err
	}
	defer a.close()

	id, err := oneArg(positional, "report id")
	if err != nil {
		return err
	}
	r, err := a.svc.Get(context.Background(), id)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(os.Stdout, r)
	}
	ui.PrintReport(os.Stdout, r)
	return nil
}

// editFields are the vulnerability fields settable from the command line.
var editFields = []string{"name", "severity", "location", "description", "remediation", "payload"}

// patchFromFlags builds a patch holding only the flags that were set.
func patchFromFlags(fs *flag.FlagSet, values map[string]*string) scan.VulnerabilityPatch {
	var p scan.VulnerabilityPatch
	fs.Visit(func(f *flag.Flag) {
		v, ok := values[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "name":
			p.Name = v
		case "severity":
			p.Severity = v
		case "location":
			p.Location = v
		case "description":
			p.Description = v
		case "remediation":
			p.Remediation = v
		case "payload":
			p.Payload = v
		}
	})
	return p
}

// runEdit patches one vulnerability of a Draft report.
//
//	scanreport edit REP-48213 VULN-C-1 -severity high
func runEdit(args []string) error {
	var flags *flag.FlagSet
	values := make(map[string]*string, len(editFields))
	a, positional, err := setup("edit", args, func(fs *flag.FlagSet) {
		flags = fs
		for _, name := range editFields {
			values[name] = fs.String(name, "", "New "+name)
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	if len(positional) != 2 {
		return fmt.Errorf("%w: expected <report-id> <vuln-id>", errUsage)
	}
	patch := patchFromFlags(flags, values)
	if patch == (scan.VulnerabilityPatch{}) {
		return fmt.Errorf("%w: set at least one of -%s", errUsage, strings.Join(editFields, ", -"))
	}

	r, err := a.svc.EditVulnerability(context.Background(), positional[0], positional[1], patch)
	if err != nil {
		return err
	}
	if v, ok := r.Vulnerability(positional[1]); ok {
		ui.PrintVulnerabilities(os.Stdout, []finding.Vulnerability{v})
	}
	ui.PrintSummaryCounts(os.Stdout, r.Summary)
	ui.PrintSuccess(fmt.Sprintf("Updated %s in %s", positional[1], r.ID))
	return nil
}

// runRename sets the target name shown on a Draft report.
func runRename(args []string) error {
	a, positional, err := setup("rename", args, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if len(positional) < 2 {
		return fmt.Errorf("%w: expected <report-id> <name>", errUsage)
	}
	r, err := a.svc.Rename(context.Background(), positional[0], strings.Join(positional[1:], " "))
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Renamed %s to %s", r.ID, r.TargetURL))
	return nil
}

// runFinalize locks a report, optionally behind a gate. A rejected gate
// exits with defaults.ExitGateFailed.
func runFinalize(args []string) error {
	var gateSpec string
	a, positional, err := setup("finalize", args, func(fs *flag.FlagSet) {
		fs.StringVar(&gateSpec, "gate", "", "Gate preset ("+strings.Join(gate.Presets(), ", ")+") or Tengo script path")
	})
	if err != nil {
		return err
	}
	defer a.close()

	id, err := oneArg(positional, "report id")
	if err != nil {
		return err
	}
	var g scan.Gate
	if gateSpec != "" {
		compiled, err := gate.Resolve(gateSpec)
		if err != nil {
			return err
		}
		g = compiled
	}

	r, err := a.svc.Finalize(context.Background(), id, g)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("%s is %s", r.ID, r.ReportStatus))
	return nil
}

// runDelete removes a stored report.
func runDelete(args []string) error {
	a, positional, err := setup("delete", args, nil)
	if err != nil {
		return err
	}
	defer a.close()

	id, err := oneArg(positional, "report id")
	if err != nil {
		return err
	}
	if err := a.svc.Delete(context.Background(), id); err != nil {
		return err
	}
	ui.PrintSuccess("Deleted " + id)
	return nil
}

// runImport stores a PDF or HTML document as an imported report.
func runImport(args []string) error {
	a, positional, err := setup("import", args, nil)
	if err != nil {
		return err
	}
	defer a.close()

	path, err := oneArg(positional, "file")
	if err != nil {
		return err
	}
	data, err := iohelper.ReadFile(path, defaults.MaxImportSize)
	switch {
	case errors.Is(err, iohelper.ErrTooLarge):
		return fmt.Errorf("%w: %s", report.ErrImportTooLarge, path)
	case err != nil:
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	r, err := a.svc.Import(context.Background(), filepath.Base(path), data)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Imported %s as %s", filepath.Base(path), r.ID))
	return nil
}

// runNarrative edits the free-form narrative of a report. Sections not
// given keep their current text, starting from the default narrative.
func runNarrative(args []string) error {
	var (
		flags    *flag.FlagSet
		logoPath string
		reset    bool
	)
	sections := map[string]*string{}
	a, positional, err := setup("narrative", args, func(fs *flag.FlagSet) {
		flags = fs
		for _, name := range []string{"title", "summary", "methodology", "findings", "conclusion", "recommendations"} {
			sections[name] = fs.String(name, "", "Narrative "+name+" (HTML allowed)")
		}
		fs.StringVar(&logoPath, "logo", "", "Logo image file")
		fs.BoolVar(&reset, "reset", false, "Start over from the default narrative")
	})
	if err != nil {
		return err
	}
	defer a.close()

	id, err := oneArg(positional, "report id")
	if err != nil {
		return err
	}
	ctx := context.Background()
	r, err := a.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	n := report.DefaultNarrative(r)
	if r.Narrative != nil && !reset {
		n = *r.Narrative
	}
	flags.Visit(func(f *flag.Flag) {
		v, ok := sections[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "title":
			n.Title = *v
		case "summary":
			n.ExecutiveSummary = *v
		case "methodology":
			n.Methodology = *v
		case "findings":
			n.Findings = *v
		case "conclusion":
			n.Conclusion = *v
		case "recommendations":
			n.Recommendations = *v
		}
	})
	if logoPath != "" {
		logo, err := report.LoadLogo(logoPath)
		if err != nil {
			return err
		}
		n.Logo = logo
	}

	if _, err := a.svc.SaveNarrative(ctx, id, n); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Saved narrative %q for %s", n.Title, id))
	ui.PrintHelp("Export it with: scanreport export " + id + " -format " + writers.FormatNarrative)
	return nil
}

// runDashboard prints aggregate statistics over the store.
func runDashboard(args []string) error {
	var jsonOut bool
	a, _, err := setup("dashboard", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&jsonOut, "json", false, "Print JSON on stdout")
	})
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.svc.Dashboard(context.Background())
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(os.Stdout, stats)
	}
	ui.PrintDashboard(os.Stdout, stats)
	return nil
}

// runTools lists the tool ids, profiles, export formats and gate presets.
// It does not open the store.
func runTools(args []string) error {
	cf, err := newCommandFlags("tools", args)
	if err != nil {
		return err
	}
	if _, err := cf.parse(args); err != nil {
		return err
	}

	ui.PrintSection("Tools")
	for _, t := range scan.Tools() {
		ui.PrintField(t.ID, t.Name)
	}
	ui.PrintSection("Profiles")
	for _, p := range report.Profiles() {
		ui.PrintField(string(p), p.Label())
	}
	ui.PrintSection("Export formats")
	ui.PrintInfo(strings.Join(writers.Formats(), ", "))
	ui.PrintSection("Gate presets")
	ui.PrintInfo(strings.Join(gate.Presets(), ", "))
	return nil
}
