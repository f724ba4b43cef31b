// Package cli implements the betmanager command tree. Commands open
// the local store directly, run one engine command, and exit — the
// tool is single-user per session, so no daemon round-trip is needed;
// `betmanager serve` starts the HTTP API for the desktop UI instead.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/betmanager/betmanager/internal/daemon"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "betmanager",
	Short: "Operational tracker for betting-house accounts",
	Long: `betmanager tracks the day-to-day operation of betting-house accounts:
pending tasks (SMS checks, deposits, withdrawals, new accounts), account
lifecycle, purchased pack delivery progress, and a full audit trail.
All data lives in a local SQLite database.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "Path to the TOML config file")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".betmanager", "config.toml")
}

// openApp loads configuration and assembles the application.
func openApp() (*daemon.App, error) {
	cfg, err := daemon.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	app, err := daemon.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}
	return app, nil
}
