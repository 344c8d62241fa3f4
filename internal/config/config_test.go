package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/liveserve/liveserve/internal/config"
)

// write puts yaml content into a temp file and returns its path.
func write(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liveserve.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr: got %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Server.Root != "." {
		t.Errorf("Root: got %q, want .", cfg.Server.Root)
	}
	if !cfg.LiveReload.Enabled {
		t.Error("LiveReload.Enabled: got false, want true by default")
	}
	if cfg.LiveReload.Debounce() != 0 {
		t.Errorf("Debounce: got %v, want 0", cfg.LiveReload.Debounce())
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := write(t, `
server:
  host: 127.0.0.1
  port: 3000
  root: ./site
live_reload:
  enabled: false
  debounce_ms: 150
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:3000" {
		t.Errorf("Addr: got %q", cfg.Server.Addr())
	}
	if cfg.Server.Root != "./site" {
		t.Errorf("Root: got %q", cfg.Server.Root)
	}
	if cfg.LiveReload.Enabled {
		t.Error("Enabled: got true, want false")
	}
	if cfg.LiveReload.Debounce() != 150*time.Millisecond {
		t.Errorf("Debounce: got %v, want 150ms", cfg.LiveReload.Debounce())
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	path := write(t, `
server:
  port: 9999
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != config.DefaultHost {
		t.Errorf("Host: got %q, want default", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port: got %d, want 9999", cfg.Server.Port)
	}
	if !cfg.LiveReload.Enabled {
		t.Error("Enabled: default lost on partial config")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := write(t, "server: [not a map")
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"port zero", "server:\n  port: 0\n"},
		{"port too large", "server:\n  port: 70000\n"},
		{"empty root", "server:\n  root: \"\"\n"},
		{"negative debounce", "live_reload:\n  debounce_ms: -5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := config.Load(write(t, tc.yaml)); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}
