// Package config loads smelt configuration from .smelt/config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FileName is the configuration file inside the state directory
const FileName = "config.json"

// Config is the complete smelt configuration
type Config struct {
	Version       int             `json:"version" mapstructure:"version"`
	WorkspaceRoot string          `json:"workspaceRoot" mapstructure:"workspaceRoot"`
	Server        ServerConfig    `json:"server" mapstructure:"server"`
	Watcher       WatcherConfig   `json:"watcher" mapstructure:"watcher"`
	Detection     DetectionConfig `json:"detection" mapstructure:"detection"`
	Logging       LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// ServerConfig describes the remote analyzer service
type ServerConfig struct {
	URL              string `json:"url" mapstructure:"url"`
	TimeoutMs        int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	HealthIntervalMs int    `json:"healthIntervalMs" mapstructure:"healthIntervalMs"`
}

// WatcherConfig configures workspace watching
type WatcherConfig struct {
	Enabled        bool     `json:"enabled" mapstructure:"enabled"`
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
	Extensions     []string `json:"extensions" mapstructure:"extensions"`
}

// DetectionConfig configures detection behavior
type DetectionConfig struct {
	RelintOnSave         bool `json:"relintOnSave" mapstructure:"relintOnSave"`
	SuppressFilterPrompt bool `json:"suppressFilterPrompt" mapstructure:"suppressFilterPrompt"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			URL:              "http://127.0.0.1:8282",
			TimeoutMs:        60000,
			HealthIntervalMs: 10000,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 300,
			IgnorePatterns: []string{
				".git",
				".smelt",
				"__pycache__",
				".venv",
				"venv",
				"node_modules",
				"*.swp",
				"*.tmp",
			},
			Extensions: []string{".py"},
		},
		Detection: DetectionConfig{
			RelintOnSave:         false,
			SuppressFilterPrompt: false,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.smelt/config.json, applying
// defaults for anything not set. A missing file is not an error.
func Load(workspaceRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigFile(filepath.Join(workspaceRoot, ".smelt", FileName))
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = workspaceRoot
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to <root>/.smelt/config.json.
// Refuses to overwrite an existing file.
func WriteDefault(workspaceRoot string) (string, error) {
	stateDir := filepath.Join(workspaceRoot, ".smelt")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config already exists at %s", path)
	}

	cfg := DefaultConfig()
	cfg.WorkspaceRoot = workspaceRoot

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeoutMs", cfg.Server.TimeoutMs)
	v.SetDefault("server.healthIntervalMs", cfg.Server.HealthIntervalMs)
	v.SetDefault("watcher.enabled", cfg.Watcher.Enabled)
	v.SetDefault("watcher.debounceMs", cfg.Watcher.DebounceMs)
	v.SetDefault("watcher.ignorePatterns", cfg.Watcher.IgnorePatterns)
	v.SetDefault("watcher.extensions", cfg.Watcher.Extensions)
	v.SetDefault("detection.relintOnSave", cfg.Detection.RelintOnSave)
	v.SetDefault("detection.suppressFilterPrompt", cfg.Detection.SuppressFilterPrompt)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
}
