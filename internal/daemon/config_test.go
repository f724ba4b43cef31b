package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" || cfg.API.Port != 8480 {
		t.Errorf("API default = %s:%d, want 127.0.0.1:8480", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Storage.Path == "" {
		t.Error("default storage path must not be empty")
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
	if cfg.Addr() != "127.0.0.1:8480" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Port != 8480 {
		t.Errorf("port = %d, want the default", cfg.API.Port)
	}
}

func TestLoad_EmptyPathKeepsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("host = %q, want the default", cfg.API.Host)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
host = "0.0.0.0"
port = 9000

[storage]
path = "/tmp/custom.db"

[metrics]
enabled = false

[audit]
system_actor = "Importer"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9000 {
		t.Errorf("API = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Storage.Path != "/tmp/custom.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by the file")
	}
	if cfg.Audit.SystemActor != "Importer" {
		t.Errorf("system actor = %q", cfg.Audit.SystemActor)
	}
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[api\nport ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}
