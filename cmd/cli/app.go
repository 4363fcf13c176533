package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/waftester/scanreport/pkg/config"
	"github.com/waftester/scanreport/pkg/history"
	"github.com/waftester/scanreport/pkg/output/dispatcher"
	"github.com/waftester/scanreport/pkg/output/hooks"
	"github.com/waftester/scanreport/pkg/report"
	"github.com/waftester/scanreport/pkg/scan"
	"github.com/waftester/scanreport/pkg/ui"
)

// errStore marks failures to open the report store.
var errStore = errors.New("report store unavailable")

// sqliteFile is the database name used when -store-path names a directory.
const sqliteFile = "reports.db"

// app holds what every subcommand shares: the merged configuration, the
// logger, the report store and the event dispatcher with its hooks.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    history.Store
	events   *dispatcher.Dispatcher
	svc      *scan.Service
	branding *report.Branding
	metrics  *hooks.PrometheusHook
}

// commandFlags parses a subcommand's arguments. The config file named by
// -config is loaded first so that flags override it.
type commandFlags struct {
	fs  *flag.FlagSet
	cfg *config.Config
}

// newCommandFlags loads the config selected by args and returns a flag set
// with the global flags registered over it.
func newCommandFlags(name string, args []string) (*commandFlags, error) {
	path := configPathFromArgs(args)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", path, "Config file (default ~/.scanreport/config.yaml)")
	cfg.RegisterFlags(fs)
	return &commandFlags{fs: fs, cfg: cfg}, nil
}

// parse parses args, allowing flags after positional arguments, and
// returns the positional arguments.
func (c *commandFlags) parse(args []string) ([]string, error) {
	positional, err := parseInterleaved(c.fs, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	ui.SetNoColor(c.cfg.NoColor)
	return positional, nil
}

// parseInterleaved parses fs repeatedly so that "show REP-1 -format json"
// and "show -format json REP-1" are equivalent.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// configPathFromArgs finds the -config value before the flag set exists.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// newLogger returns the CLI logger: warnings only, or debug with -v.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// storePath resolves the store location for the configured backend.
func storePath(cfg *config.Config) string {
	path := cfg.Store.Path
	if strings.EqualFold(cfg.Store.Backend, history.BackendSQLite) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return filepath.Join(path, sqliteFile)
		}
	}
	return path
}

// newApp opens the store and wires the configured hooks.
func newApp(cfg *config.Config) (*app, error) {
	logger := newLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		events: dispatcher.New(dispatcher.Config{Logger: logger}),
	}

	if cfg.BrandingPath != "" {
		b, err := report.LoadBranding(cfg.BrandingPath)
		if err != nil {
			return nil, fmt.Errorf("branding: %w", err)
		}
		a.branding = b
	}

	if err := a.registerHooks(); err != nil {
		a.events.Close()
		return nil, err
	}

	store, err := history.Open(cfg.Store.Backend, storePath(cfg))
	if err != nil {
		a.events.Close()
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	a.store = store
	a.svc = scan.NewService(store, a.events, logger)
	logger.Debug("store opened", slog.String("backend", cfg.Store.Backend), slog.String("path", storePath(cfg)))
	return a, nil
}

// registerHooks attaches the logger hook and every telemetry sink the
// configuration enables.
func (a *app) registerHooks() error {
	t := a.cfg.Telemetry
	a.events.RegisterHook(hooks.NewLoggerHook(a.logger))

	if t.MetricsAddr != "" {
		h, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{Addr: t.MetricsAddr, Logger: a.logger})
		if err != nil {
			return fmt.Errorf("prometheus: %w", err)
		}
		a.metrics = h
		a.events.RegisterHook(h)
	}
	if t.OTLPEndpoint != "" {
		h, err := hooks.NewOTelHook(hooks.OTelOptions{Endpoint: t.OTLPEndpoint, Insecure: t.OTLPInsecure})
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		a.events.RegisterHook(h)
	}
	if t.WebhookURL != "" {
		a.events.RegisterHook(hooks.NewWebhookHook(t.WebhookURL, hooks.WebhookOptions{Logger: a.logger}))
	}
	if t.JournalPath != "" {
		h, err := hooks.NewJournalHook(t.JournalPath)
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		a.events.RegisterHook(h)
	}
	return nil
}

// orchestrator returns an orchestrator over the app's store and events.
func (a *app) orchestrator(onProgress scan.ProgressFunc) *scan.Orchestrator {
	return scan.NewOrchestrator(scan.Options{
		Store:      a.store,
		Events:     a.events,
		Logger:     a.logger,
		Pacing:     a.cfg.Pacing,
		OnProgress: onProgress,
	})
}

// close flushes hooks and closes the store.
func (a *app) close() {
	a.events.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", slog.String("error", err.Error()))
	}
}

// setup parses args for the named command, registering the command's own
// flags first, and opens the app. The caller must close the app.
func setup(name string, args []string, register func(fs *flag.FlagSet)) (*app, []string, error) {
	cf, err := newCommandFlags(name, args)
	if err != nil {
		return nil, nil, err
	}
	if register != nil {
		register(cf.fs)
	}
	positional, err := cf.parse(args)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cf.cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, positional, nil
}

// oneArg returns the single positional argument or a usage error.
func oneArg(positional []string, what string) (string, error) {
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("%w: expected exactly one %s", errUsage, what)
	}
	return positional[0], nil
}
