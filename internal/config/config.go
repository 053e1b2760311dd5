package config

import "time"

// Config is the complete application configuration. Values merge in
// three layers: built-in defaults, an optional YAML config file, and
// POEWATCHER_* environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	API     APIConfig     `mapstructure:"api"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// WatcherConfig contains game-log watcher configuration.
type WatcherConfig struct {
	// LogPath points at Client.txt. Empty means auto-detect from the
	// common install locations.
	LogPath string `mapstructure:"log_path"`
}

// APIConfig contains pathofexile.com client configuration.
type APIConfig struct {
	AccountName string `mapstructure:"account_name"`
	BaseURL     string `mapstructure:"base_url"`

	// SnapshotOnSplit captures character state from the API at each
	// breakpoint split. Requires a public profile.
	SnapshotOnSplit bool `mapstructure:"snapshot_on_split"`
}

// RunConfig contains run-tracking configuration.
type RunConfig struct {
	League string `mapstructure:"league"`

	// Category labels runs for personal-best grouping (e.g. "campaign").
	Category string `mapstructure:"category"`

	// BreakpointPreset selects a built-in preset ("acts", "levels") or
	// names a preset defined in BreakpointFile.
	BreakpointPreset string `mapstructure:"breakpoint_preset"`

	// BreakpointFile optionally points at a YAML file with custom
	// breakpoint presets.
	BreakpointFile string `mapstructure:"breakpoint_file"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format selects the output encoding: "console" or "json".
	Format string `mapstructure:"format"`
}
