package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Image          ImageConfig       `mapstructure:"image"`
	Compose        ComposeConfig     `mapstructure:"compose"`
	Docker         DockerConfig      `mapstructure:"docker"`
	Log            LogConfig         `mapstructure:"log"`
	NonInteractive bool              `mapstructure:"non_interactive"`
	Credentials    CredentialsConfig `mapstructure:"credentials"`
}

// ImageConfig names the image built from the source tree.
type ImageConfig struct {
	Name string `mapstructure:"name"`
	Tag  string `mapstructure:"tag"`
}

// ComposeConfig holds compose stack settings.
type ComposeConfig struct {
	// StatusDelay is the grace period before service status is shown.
	StatusDelay time.Duration `mapstructure:"status_delay"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CredentialsConfig supplies credentials for non-interactive runs.
// Set via HAJIMI_DEPLOY_CREDENTIALS_GITHUB_TOKENS rather than a file.
type CredentialsConfig struct {
	GitHubTokens      string `mapstructure:"github_tokens"`
	AllowUnrecognized bool   `mapstructure:"allow_unrecognized"`
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Image.Name) == "" {
		return errors.New("image.name must not be empty")
	}
	if strings.TrimSpace(c.Image.Tag) == "" {
		return errors.New("image.tag must not be empty")
	}
	if c.Compose.StatusDelay < 0 {
		return errors.New("compose.status_delay must not be negative")
	}
	return nil
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("image.name", "hajimi-king")
	v.SetDefault("image.tag", "1.0.0")
	v.SetDefault("compose.status_delay", "5s")
	v.SetDefault("docker.host", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("non_interactive", false)

	// Only meaningful with non_interactive
	v.SetDefault("credentials.github_tokens", "")
	v.SetDefault("credentials.allow_unrecognized", false)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("HAJIMI_DEPLOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. Logs go
// to w so they never mix with operator output.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
