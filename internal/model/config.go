package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the GraphQL backend connection.
type APIConfig struct {
	// BaseURL is the full URL of the GraphQL endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// CacheConfig holds settings for the local entity cache.
type CacheConfig struct {
	// Path is the SQLite database file path.
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// DefaultBaseURL is used when neither the config file nor the
// MINIJIRA_API_URL environment variable provides an endpoint.
const DefaultBaseURL = "http://localhost:8000/graphql/"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/minijira/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "minijira", "config.yaml")
}

// DefaultCachePath returns the default path for the entity cache
// database, located at ~/.config/minijira/cache.db.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cache.db")
	}
	return filepath.Join(home, ".config", "minijira", "cache.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 5,
		},
		Cache: CacheConfig{
			Path: DefaultCachePath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration. The
// MINIJIRA_API_URL environment variable overrides the endpoint from any
// source.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.poll_interval_sec", 5)
	v.SetDefault("cache.path", DefaultCachePath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return applyEnv(defaultAppConfig()), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return applyEnv(defaultAppConfig()), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 5
	}
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}

	return applyEnv(cfg), nil
}

// applyEnv layers environment overrides on top of cfg.
func applyEnv(cfg *AppConfig) *AppConfig {
	if url := os.Getenv("MINIJIRA_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	return cfg
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("display", cfg.Display)
	v.Set("cache", cfg.Cache)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
