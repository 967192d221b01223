// Package config loads the broker's server table and ambient settings from
// a YAML file via Viper. It stays deliberately thin: validation beyond what
// Viper gives for free is not this package's job.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Features toggles which optional LSP capabilities the controller will
// exercise for a given language server.
type Features struct {
	CodeLenses  bool `mapstructure:"code_lenses"`
	CodeActions bool `mapstructure:"code_actions"`
	Completion  bool `mapstructure:"completion"`
	Diagnostics bool `mapstructure:"diagnostics"`
}

// ServerConfig describes how to spawn and configure a single language
// server.
type ServerConfig struct {
	Command               string                 `mapstructure:"command"`
	Args                  []string               `mapstructure:"args"`
	InitializationOptions map[string]interface{} `mapstructure:"initialization_options"`
	Features              Features               `mapstructure:"features"`
	RootMarkers           []string               `mapstructure:"root_markers"`
}

// LogConfig controls zap sink construction.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// HoverConfig controls how hover results are presented back to the editor.
type HoverConfig struct {
	Strategy            string   `mapstructure:"strategy"`
	PreferredMarkupKind []string `mapstructure:"preferred_markup_kind"`
}

// BrokerConfig is the top-level document loaded from the config file.
type BrokerConfig struct {
	Servers map[string]ServerConfig `mapstructure:"servers"`
	Log     LogConfig               `mapstructure:"log"`
	Hover   HoverConfig             `mapstructure:"hover"`
}

func defaults() BrokerConfig {
	return BrokerConfig{
		Servers: map[string]ServerConfig{},
		Log: LogConfig{
			Level:  "info",
			Output: "",
		},
		Hover: HoverConfig{
			Strategy:            "floating_window",
			PreferredMarkupKind: []string{"markdown", "plaintext"},
		},
	}
}

// Load reads path (if non-empty) through Viper and merges it over defaults.
// An empty path returns defaults unchanged — the broker runs with no config
// file at all, with an empty server table.
func Load(path string) (*BrokerConfig, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("hover.strategy", cfg.Hover.Strategy)
	v.SetDefault("hover.preferred_markup_kind", cfg.Hover.PreferredMarkupKind)

	if path == "" {
		return &cfg, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &cfg, nil
}
