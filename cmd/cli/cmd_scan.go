package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/pkg/ui"
)

// runScan generates a report for one target and stores it as a Draft.
//
//	scanreport scan https://example.com -profile standard -tools zap,nmap
//
// Without -tools the profile's default tools are listed.
func runScan(args []string) error {
	var (
		target      string
		profileName string
		toolList    string
		jsonOut     bool
	)
	a, positional, err := setup("scan", args, func(fs *flag.FlagSet) {
		fs.StringVar(&target, "u", "", "Target URL (or pass it as the argument)")
		fs.StringVar(&profileName, "profile", string(report.Quick), "Scan profile: quick, standard, full")
		fs.StringVar(&toolList, "tools", "", `Comma-separated tool ids, or "all" (default: the profile's tools, see: scanreport tools)`)
		fs.BoolVar(&jsonOut, "json", false, "Print the report as JSON on stdout")
	})
	if err != nil {
		return err
	}
	defer a.close()

	if target == "" && len(positional) > 0 {
		target = positional[0]
	}
	profile, err := report.ParseProfile(profileName)
	if err != nil {
		return err
	}
	tools, err := scan.ParseTools(toolList)
	if err != nil {
		return err
	}
	req := scan.Request{Target: strings.TrimSpace(target), Profile: profile, Tools: tools}.WithDefaults()
	if err := scan.ValidateRequest(req); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ui.PrintBanner()
	ui.PrintField("Target", req.Target)
	ui.PrintField("Profile", profile.Label())
	ui.PrintField("Tools", strings.Join(scan.ToolNames(req.Tools), ", "))

	progress := ui.NewScanProgress(profile.Label())
	r, err := a.orchestrator(progress.Update).Run(ctx, req)
	progress.Done()
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(os.Stdout, r)
	}
	ui.PrintReport(os.Stdout, r)
	ui.PrintSuccess(fmt.Sprintf("Saved %s as %s", r.ID, r.ReportStatus))
	return nil
}
