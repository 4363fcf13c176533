package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/history"
)

// Config holds the settings shared by every CLI command. Values come from
// the YAML config file first and are then overridden by flags.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MCP       MCPConfig       `yaml:"mcp"`

	// BrandingPath points at a branding YAML file for exports.
	BrandingPath string `yaml:"branding"`

	// Pacing enables the cosmetic progress delays during generation.
	Pacing bool `yaml:"pacing"`

	NoColor bool `yaml:"no_color"`
	Verbose bool `yaml:"verbose"`
}

// StoreConfig selects the report store.
type StoreConfig struct {
	Backend string `yaml:"backend"` // json or sqlite
	Path    string `yaml:"path"`    // directory (json) or database file (sqlite)
}

// TelemetryConfig enables the optional event hooks.
type TelemetryConfig struct {
	MetricsAddr  string `yaml:"metrics_addr"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	WebhookURL   string `yaml:"webhook_url"`
	JournalPath  string `yaml:"journal_path"`
}

// MCPConfig configures the MCP HTTP transport.
type MCPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64 `yaml:"rate_limit"`
}

// Default returns the built-in configuration. The store lives under the
// user's home directory when one is known.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: history.BackendJSON,
			Path:    homePath(defaults.StoreDir),
		},
		MCP:    MCPConfig{Addr: defaults.MCPAddr, RateLimit: 20},
		Pacing: true,
	}
}

func homePath(rel string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return rel
	}
	return filepath.Join(home, rel)
}

// DefaultPath is the config file read when no -config flag is given.
func DefaultPath() string {
	return homePath(defaults.ConfigFile)
}

// Load reads the YAML file at path over the defaults. A missing file at
// the default path is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RegisterFlags binds the global flags to cfg so parsing overrides the
// loaded values in place.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	// === STORE ===
	fs.StringVar(&c.Store.Backend, "store", c.Store.Backend, "Report store backend: json, sqlite")
	fs.StringVar(&c.Store.Path, "store-path", c.Store.Path, "Report store directory (json) or database file (sqlite)")

	// === TELEMETRY ===
	fs.StringVar(&c.Telemetry.MetricsAddr, "metrics-addr", c.Telemetry.MetricsAddr, "Serve Prometheus metrics on this address (e.g. "+defaults.MetricsAddr+")")
	fs.StringVar(&c.Telemetry.OTLPEndpoint, "otel-endpoint", c.Telemetry.OTLPEndpoint, "Export traces to this OTLP gRPC endpoint")
	fs.BoolVar(&c.Telemetry.OTLPInsecure, "otel-insecure", c.Telemetry.OTLPInsecure, "Use an insecure OTLP connection")
	fs.StringVar(&c.Telemetry.WebhookURL, "webhook", c.Telemetry.WebhookURL, "POST complete and edit events to this URL")
	fs.StringVar(&c.Telemetry.JournalPath, "journal", c.Telemetry.JournalPath, "Append complete and edit events to this JSONL file")

	// === OUTPUT ===
	fs.StringVar(&c.BrandingPath, "branding", c.BrandingPath, "Branding YAML for exports")
	fs.BoolVar(&c.Pacing, "pacing", c.Pacing, "Pace progress updates like a real scan")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
	fs.BoolVar(&c.NoColor, "nc", c.NoColor, "No color (alias)")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Verbose output")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Verbose (alias)")
}

// Validate checks the configuration for values no command can use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case history.BackendJSON, history.BackendSQLite:
	default:
		return fmt.Errorf("%w: store backend %q (want json or sqlite)", ErrInvalidConfig, c.Store.Backend)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("%w: store path", ErrMissingRequired)
	}
	for name, addr := range map[string]string{
		"metrics address": c.Telemetry.MetricsAddr,
		"mcp address":     c.MCP.Addr,
	} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, name, addr, err)
		}
	}
	if c.Telemetry.WebhookURL != "" {
		u, err := url.Parse(c.Telemetry.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: webhook url %q", ErrInvalidConfig, c.Telemetry.WebhookURL)
		}
	}
	if c.MCP.RateLimit < 0 {
		return fmt.Errorf("%w: mcp rate limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
