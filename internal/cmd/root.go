// Package cmd implements the poewatcher CLI.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/config"
	"github.com/kburke8/poe-watcher/internal/core/store"
	"github.com/kburke8/poe-watcher/internal/observability"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "poewatcher",
	Short: "Track Path of Exile leveling runs from the game log",
	Long: `poewatcher tails the game's Client.txt, records leveling runs with
splits at zone and level breakpoints, and captures character snapshots
from the pathofexile.com character-window API.

Use the subcommands to watch the log, serve the local API, or inspect
recorded runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/poe-watcher/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// loadConfig reads the merged configuration, applying the --verbose
// override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the logger from config.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
}

// openStore opens the database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() // nolint:errcheck // best-effort cleanup after failed migrate
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

// newAPIClient builds the pathofexile.com client from config.
func newAPIClient(cfg *config.Config, log *zap.Logger) *poeapi.Client {
	opts := []poeapi.Option{poeapi.WithLogger(log)}
	if cfg.API.BaseURL != "" {
		opts = append(opts, poeapi.WithBaseURL(cfg.API.BaseURL))
	}
	return poeapi.NewClient(opts...)
}

// requireAccount resolves the account name from a flag value or config.
func requireAccount(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.API.AccountName != "" {
		return cfg.API.AccountName, nil
	}
	return "", fmt.Errorf("account name required: pass --account or set api.account_name")
}
