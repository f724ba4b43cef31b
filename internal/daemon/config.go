// Package daemon wires the tracker together: configuration, storage,
// engine, settings, and the HTTP API.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
	Audit   AuditConfig   `toml:"audit"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `toml:"path"`
}

// MetricsConfig gates the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// AuditConfig tunes audit attribution.
type AuditConfig struct {
	// SystemActor overrides the attribution for commands issued with no
	// session, e.g. scripted imports. Empty keeps the built-in default.
	SystemActor string `toml:"system_actor"`
}

// DefaultConfig returns the defaults for a local single-user install.
func DefaultConfig() Config {
	return Config{
		API:     APIConfig{Host: "127.0.0.1", Port: 8480},
		Storage: StorageConfig{Path: defaultDBPath()},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "betmanager.db"
	}
	return filepath.Join(home, ".betmanager", "betmanager.db")
}

// Load reads a TOML config file over the defaults. A missing file is
// not an error: the defaults stand.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port the API listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
