// Package config loads server configuration from refx.toml with environment
// overrides. Missing files fall back to defaults so the server runs with no
// setup at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	WorkspaceRoot string `toml:"workspaceRoot" mapstructure:"workspaceRoot"`

	Logging LoggingConfig `toml:"logging" mapstructure:"logging"`
	Limits  LimitsConfig  `toml:"limits" mapstructure:"limits"`
	Build   BuildConfig   `toml:"build" mapstructure:"build"`
	Cache   CacheConfig   `toml:"cache" mapstructure:"cache"`
	Audit   AuditConfig   `toml:"audit" mapstructure:"audit"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// LimitsConfig bounds resource usage per request.
type LimitsConfig struct {
	MaxFiles        int `toml:"maxFiles" mapstructure:"maxFiles"`
	MaxResults      int `toml:"maxResults" mapstructure:"maxResults"`
	MaxSummaryLines int `toml:"maxSummaryLines" mapstructure:"maxSummaryLines"`
}

// BuildConfig controls pre-flight build validation.
type BuildConfig struct {
	Command        string `toml:"command" mapstructure:"command"`
	TimeoutSeconds int    `toml:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// CacheConfig controls the build-result cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// AuditConfig controls the applied-refactoring audit log.
type AuditConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// FileName is the config file looked up in the workspace root.
const FileName = "refx.toml"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkspaceRoot: ".",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Limits: LimitsConfig{
			MaxFiles:        5000,
			MaxResults:      100,
			MaxSummaryLines: 12,
		},
		Build: BuildConfig{
			Command:        "dotnet",
			TimeoutSeconds: 120,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".refx/build-cache.db",
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    ".refx/audit.jsonl.zst",
		},
	}
}

// Load reads refx.toml from root, layering REFX_* environment variables on
// top. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("workspaceRoot", root)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("limits.maxFiles", def.Limits.MaxFiles)
	v.SetDefault("limits.maxResults", def.Limits.MaxResults)
	v.SetDefault("limits.maxSummaryLines", def.Limits.MaxSummaryLines)
	v.SetDefault("build.command", def.Build.Command)
	v.SetDefault("build.timeoutSeconds", def.Build.TimeoutSeconds)
	v.SetDefault("cache.enabled", def.Cache.Enabled)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("audit.enabled", def.Audit.Enabled)
	v.SetDefault("audit.path", def.Audit.Path)

	v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
	v.SetConfigType("toml")
	v.AddConfigPath(root)

	v.SetEnvPrefix("REFX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as TOML to root/refx.toml.
func (c *Config) Save(root string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, FileName), data, 0o644)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.Limits.MaxFiles <= 0 {
		return fmt.Errorf("limits.maxFiles must be positive, got %d", c.Limits.MaxFiles)
	}
	if c.Limits.MaxResults <= 0 {
		return fmt.Errorf("limits.maxResults must be positive, got %d", c.Limits.MaxResults)
	}
	if c.Build.TimeoutSeconds <= 0 {
		return fmt.Errorf("build.timeoutSeconds must be positive, got %d", c.Build.TimeoutSeconds)
	}
	return nil
}
