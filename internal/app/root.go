package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matdotcx/carrus/internal/config"
	"github.com/matdotcx/carrus/internal/logging"
	"github.com/matdotcx/carrus/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dbPath  string

	// cfg is resolved once per invocation in the root PersistentPreRunE and
	// read by every subcommand.
	cfg *config.Config

	logCleanup func()

	// RootCmd is the root command for carrus
	RootCmd = &cobra.Command{
		Use:   "carrus",
		Short: "Package version tracking with update notifications",
		Long: `carrus tracks known versions of packages alongside the one currently
installed, and notifies you when a newer version appears.

Versions are added by your build or recipe pipeline with 'carrus add';
'carrus check' then compares the latest known version of every package
against the installed one and sends a notification per pending update
over the configured channel (cli, system, email, github, or slack).

Quick Start:
  1. carrus add Firefox --version 120.0 --url https://example.com/Firefox.dmg
  2. carrus installed Firefox 120.0
  3. carrus check

Examples:
  # See what carrus knows
  carrus list

  # Switch notifications to Slack
  carrus configure --method slack --slack-webhook https://hooks.slack.com/...

  # Verify the channel works end to end
  carrus notify-test`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env values become plain env vars, which ApplyEnvOverrides
			// then folds into the config. A missing .env is not an error.
			_ = godotenv.Load()

			var err error
			cfg, err = loadConfig()
			if err != nil {
				return err
			}

			logCleanup, err = logging.Init(cfg.LogFile, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCleanup != nil {
				logCleanup()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("carrus: package version tracking with update notifications")
			fmt.Println()
			fmt.Println("Run 'carrus check' to look for pending updates.")
			fmt.Println("Run 'carrus --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/carrus/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/carrus/carrus.db)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// defaultConfigPath returns the config file location under XDG conventions.
func defaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "carrus", "config.yaml")
}

// loadConfig resolves the effective configuration: defaults, then the config
// file if present, then CARRUS_* env overrides, then command-line flags.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}

	c, err := config.LoadConfigFromFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		if cfgFile != "" {
			return nil, fmt.Errorf("config file not found: %s", cfgFile)
		}
		c = config.DefaultConfig()
	}

	if err := config.ApplyEnvOverrides(c); err != nil {
		return nil, err
	}
	if dbPath != "" {
		c.DBPath = dbPath
	}
	return c, nil
}

// openStore opens the version store at the configured path, creating parent
// directories as needed.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	return st, nil
}
