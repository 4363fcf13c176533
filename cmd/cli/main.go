package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/ui"
)

// command is one scanreport subcommand.
type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{name: "scan", usage: "scan <url> [-profile quick|standard|full] [-tools zap,nmap] [-json]", summary: "Generate a report for a target and store it as a Draft", run: runScan},
	{name: "reports", aliases: []string{"ls", "list"}, usage: "reports [-type quick] [-status Draft] [-search text] [-limit n] [-json]", summary: "List stored reports, newest first", run: runReports},
	{name: "show", usage: "show <report-id> [-json]", summary: "Print one stored report", run: runShow},
	{name: "edit", usage: "edit <report-id> <vuln-id> [-severity high] [-name ...] [-remediation ...]", summary: "Change fields of one vulnerability", run: runEdit},
	{name: "rename", usage: "rename <report-id> <name>", summary: "Change the target name shown on a report", run: runRename},
	{name: "finalize", usage: "finalize <report-id> [-gate no-critical|path.tengo]", summary: "Lock a report, optionally behind a gate", run: runFinalize},
	{name: "delete", aliases: []string{"rm"}, usage: "delete <report-id>", summary: "Delete a stored report", run: runDelete},
	{name: "import", usage: "import <file.pdf|file.html>", summary: "Store an existing PDF or HTML report", run: runImport},
	{name: "narrative", usage: "narrative <report-id> [-title ...] [-summary ...] [-logo file] [-reset]", summary: "Edit the free-form narrative of a report", run: runNarrative},
	{name: "export", usage: "export <report-id> [-format html|narrative|csv|json|md|pdf|archive] [-o file] [-engine fpdf|chrome] [-sanitize=false]", summary: "Render a report as a document", run: runExport},
	{name: "dashboard", usage: "dashboard [-json]", summary: "Aggregate statistics over every stored report", run: runDashboard},
	{name: "tools", usage: "tools", summary: "List tool ids, profiles, export formats and gate presets", run: runTools},
	{name: "mcp", usage: "mcp [-http :8080] [-rate 20]", summary: "Serve the report tools over the Model Context Protocol", run: runMCP},
}

// lookup finds a command by name or alias.
func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, alias := range c.aliases {
			if alias == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags]\n\n", defaults.ToolName)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	for _, c := range commands[:4] {
		fmt.Fprintf(w, "  %s %s\n", defaults.ToolName, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags (every command): -config, -store, -store-path, -metrics-addr,")
	fmt.Fprintln(w, "  -otel-endpoint, -otel-insecure, -webhook, -journal, -branding, -pacing, -no-color, -v")
	fmt.Fprintf(w, "\nRun '%s <command> -h' for command flags.\n", defaults.ToolName)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s", defaults.ToolNameDisplay, defaults.Version)
	if ui.Commit != "" {
		fmt.Fprintf(w, " (%s", ui.Commit)
		if ui.BuildDate != "" {
			fmt.Fprintf(w, ", %s", ui.BuildDate)
		}
		fmt.Fprint(w, ")")
	}
	fmt.Fprintf(w, " %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func main() {
	if len(os.Args) < 2 {
		ui.PrintBanner()
		printUsage(os.Stderr)
		os.Exit(defaults.ExitUserError)
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		ui.PrintBanner()
		printUsage(os.Stdout)
		os.Exit(defaults.ExitSuccess)
	case "-version", "--version", "version":
		printVersion(os.Stdout)
		os.Exit(defaults.ExitSuccess)
	}

	c, ok := lookup(os.Args[1])
	if !ok {
		exitWithUsage(fmt.Sprintf("unknown command %q", os.Args[1]), defaults.ToolName+" <command> [flags]")
	}

	err := c.run(os.Args[2:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(defaults.ExitSuccess)
	}
	if errors.Is(err, errUsage) {
		exitWithUsage(err.Error(), defaults.ToolName+" "+c.usage)
	}
	exitOnError(err)
}
