// Package config provides centralized configuration management for
// poe-watcher. Values merge in three layers: built-in defaults, an
// optional YAML config file, and POEWATCHER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "POEWATCHER"

// Load reads configuration from defaults, the config file (if any) and
// the environment. An empty path means "use the default location if it
// exists"; a non-empty path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if defaultPath := DefaultConfigPath(); defaultPath != "" {
		v.SetConfigFile(defaultPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound *os.PathError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", defaultPath, err)
			}
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7555)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0) // SSE streams stay open
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("watcher.log_path", "")

	v.SetDefault("api.account_name", "")
	v.SetDefault("api.base_url", "https://www.pathofexile.com")
	v.SetDefault("api.snapshot_on_split", false)

	v.SetDefault("run.league", "Standard")
	v.SetDefault("run.category", "campaign")
	v.SetDefault("run.breakpoint_preset", "acts")
	v.SetDefault("run.breakpoint_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// DefaultConfigPath returns the user config file location,
// ~/.config/poe-watcher/config.yaml, or "" when the home directory is
// unknown.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "poe-watcher", "config.yaml")
}

// DefaultStorePath returns the default database file location.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./poe-watcher.db"
	}
	return filepath.Join(dir, "poe-watcher", "poe-watcher.db")
}
