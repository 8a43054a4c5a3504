package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Engines selectable with --engine.
const (
	EngineLocal = "local"
	EngineFSM   = "fsm"
)

// Config holds all application configuration
type Config struct {
	// Directory layout
	SourceDir string `mapstructure:"source-dir"`
	FullDir   string `mapstructure:"full-dir"`
	ThumbDir  string `mapstructure:"thumb-dir"`

	// Derivative policy
	FullWidth  int `mapstructure:"full-width"`
	ThumbWidth int `mapstructure:"thumb-width"`
	Quality    int `mapstructure:"quality"`

	// External tools
	IdentifyBin string `mapstructure:"identify-bin"`
	ConvertBin  string `mapstructure:"convert-bin"`

	// Execution
	Workers   int    `mapstructure:"workers"`
	Engine    string `mapstructure:"engine"`
	FSMDBPath string `mapstructure:"fsm-db-path"`

	// Optional sinks; empty disables them
	CatalogPath string `mapstructure:"catalog-path"`
	S3Bucket    string `mapstructure:"s3-bucket"`
	S3Region    string `mapstructure:"s3-region"`
	S3Prefix    string `mapstructure:"s3-prefix"`

	LogLevel string `mapstructure:"log-level"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source-dir", "images")
	v.SetDefault("full-dir", "images/full")
	v.SetDefault("thumb-dir", "images/thumbs")
	v.SetDefault("full-width", 1024)
	v.SetDefault("thumb-width", 512)
	v.SetDefault("quality", 85)
	v.SetDefault("identify-bin", "identify")
	v.SetDefault("convert-bin", "convert")
	v.SetDefault("workers", 1)
	v.SetDefault("engine", EngineLocal)
	v.SetDefault("fsm-db-path", ".artifacts/fsm")
	v.SetDefault("catalog-path", "")
	v.SetDefault("s3-bucket", "")
	v.SetDefault("s3-region", "us-east-1")
	v.SetDefault("s3-prefix", "")
	v.SetDefault("log-level", "warn")
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration through v. Flags bound to v take precedence.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Environment variables (will be RESIZE_IMAGES_SOURCE_DIR, etc.)
	v.SetEnvPrefix("RESIZE_IMAGES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.resize-images")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source-dir cannot be empty")
	}
	if c.FullDir == "" {
		return fmt.Errorf("full-dir cannot be empty")
	}
	if c.ThumbDir == "" {
		return fmt.Errorf("thumb-dir cannot be empty")
	}
	if c.FullWidth <= 0 {
		return fmt.Errorf("full-width must be positive")
	}
	if c.ThumbWidth <= 0 {
		return fmt.Errorf("thumb-width must be positive")
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	switch c.Engine {
	case EngineLocal:
	case EngineFSM:
		if c.FSMDBPath == "" {
			return fmt.Errorf("fsm-db-path cannot be empty with the fsm engine")
		}
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineLocal, EngineFSM, c.Engine)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log-level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}
