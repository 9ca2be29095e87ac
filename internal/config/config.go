// Package config loads the engine's YAML configuration the way the
// teacher's internal/config.go does: viper.New, SetConfigType("yaml"),
// mapstructure tags, Unmarshal.
package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the on-disk engine configuration: where table/catalog files
// live, how many pages each table's cache holds, and logging verbosity.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	Cache struct {
		PageCapacity int `mapstructure:"page_capacity"`
	} `mapstructure:"cache"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{DataDir: "./data"}
	cfg.Cache.PageCapacity = 64
	cfg.Log.Level = "info"
	return cfg
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// Watch reloads the config on every change to path and calls onChange with
// the freshly parsed value, best-effort (a parse error is logged by the
// caller, not fatal — the engine keeps running on its last good config).
func Watch(path string, onChange func(*Config, error)) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := Default()
		if err := v.Unmarshal(cfg); err != nil {
			onChange(nil, fmt.Errorf("config: reload %s: %w", path, err))
			return
		}
		onChange(cfg, nil)
	})
	v.WatchConfig()
	return nil
}
