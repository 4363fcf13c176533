package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/waftester/scanreport/pkg/defaults"
)

// newFlagSet returns a fresh flag set bound to cfg for each test
func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("scanreport", flag.ContinueOnError)
	fs.SetOutput(new(discard))
	cfg.RegisterFlags(fs)
	return fs
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// TestConfigDefaults verifies default values are set correctly
func TestConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	if cfg.Store.Backend != "json" {
		t.Errorf("Store.Backend default: got %q, want 'json'", cfg.Store.Backend)
	}
	if want := filepath.Join(home, defaults.StoreDir); cfg.Store.Path != want {
		t.Errorf("Store.Path default: got %q, want %q", cfg.Store.Path, want)
	}
	if cfg.MCP.Addr != defaults.MCPAddr {
		t.Errorf("MCP.Addr default: got %q, want %q", cfg.MCP.Addr, defaults.MCPAddr)
	}
	if !cfg.Pacing {
		t.Error("Pacing should default to true")
	}
	if cfg.Telemetry.MetricsAddr != "" || cfg.Telemetry.WebhookURL != "" {
		t.Error("telemetry hooks should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestLoadMissingDefaultFile verifies a missing default config is not an error
func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != "json" {
		t.Errorf("expected defaults, got backend %q", cfg.Store.Backend)
	}
}

// TestLoadMissingExplicitFile verifies an explicit path must exist
func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

// TestLoadYAML verifies file values override defaults and keep unset ones
func TestLoadYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `store:
  backend: sqlite
  path: /var/lib/scanreport/reports.db
telemetry:
  metrics_addr: ":9464"
  webhook_url: https://hooks.example.com/scan
pacing: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend: got %q, want 'sqlite'", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/var/lib/scanreport/reports.db" {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if cfg.Telemetry.MetricsAddr != ":9464" {
		t.Errorf("MetricsAddr: got %q", cfg.Telemetry.MetricsAddr)
	}
	if cfg.Pacing {
		t.Error("Pacing should be false from file")
	}
	if cfg.MCP.Addr != defaults.MCPAddr {
		t.Errorf("MCP.Addr should keep default, got %q", cfg.MCP.Addr)
	}
}

// TestLoadBadYAML verifies malformed files wrap ErrInvalidConfig
func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// TestFlagsOverrideFile verifies flags win over file values
func TestFlagsOverrideFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: sqlite\n  path: a.db\nno_color: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	fs := newFlagSet(cfg)
	if err := fs.Parse([]string{"-store-path", "b.db", "-v", "-journal", "events.jsonl", "list"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend should stay from file, got %q", cfg.Store.Backend)
	}
	if cfg.Store.Path != "b.db" {
		t.Errorf("Store.Path: got %q, want 'b.db'", cfg.Store.Path)
	}
	if !cfg.NoColor {
		t.Error("NoColor should stay true from file")
	}
	if !cfg.Verbose {
		t.Error("-v should set Verbose")
	}
	if cfg.Telemetry.JournalPath != "events.jsonl" {
		t.Errorf("JournalPath: got %q", cfg.Telemetry.JournalPath)
	}
	if args := fs.Args(); len(args) != 1 || args[0] != "list" {
		t.Errorf("remaining args: got %v", args)
	}
}

// TestValidate covers the rejected configurations
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"ok", func(*Config) {}, nil},
		{"sqlite", func(c *Config) { c.Store.Backend = "sqlite" }, nil},
		{"bad backend", func(c *Config) { c.Store.Backend = "mongo" }, ErrInvalidConfig},
		{"empty path", func(c *Config) { c.Store.Path = " " }, ErrMissingRequired},
		{"bad metrics addr", func(c *Config) { c.Telemetry.MetricsAddr = "9464" }, ErrInvalidConfig},
		{"good metrics addr", func(c *Config) { c.Telemetry.MetricsAddr = "127.0.0.1:9464" }, nil},
		{"bad webhook", func(c *Config) { c.Telemetry.WebhookURL = "ftp://x" }, ErrInvalidConfig},
		{"relative webhook", func(c *Config) { c.Telemetry.WebhookURL = "/hook" }, ErrInvalidConfig},
		{"negative rate", func(c *Config) { c.MCP.RateLimit = -1 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Store: StoreConfig{Backend: "json", Path: "reports"},
				MCP:   MCPConfig{Addr: ":8080"},
			}
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// TestSaveRoundTrip verifies Save writes a file Load reads back
func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Store:        StoreConfig{Backend: "sqlite", Path: "r.db"},
		BrandingPath: "brand.yaml",
	}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Store != cfg.Store || got.BrandingPath != "brand.yaml" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
