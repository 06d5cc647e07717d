package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "hajimi-king", cfg.Image.Name)
	assert.Equal(t, "1.0.0", cfg.Image.Tag)
	assert.Equal(t, 5*time.Second, cfg.Compose.StatusDelay)
	assert.Empty(t, cfg.Docker.Host)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.NonInteractive)
	assert.Empty(t, cfg.Credentials.GitHubTokens)
	assert.False(t, cfg.Credentials.AllowUnrecognized)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
image:
  name: "registry.local/hajimi-king"
  tag: "1.1.0"

compose:
  status_delay: 10s

docker:
  host: "unix:///var/run/docker.sock"

log:
  level: "debug"
  format: "json"

non_interactive: true
credentials:
  allow_unrecognized: true
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "registry.local/hajimi-king", cfg.Image.Name)
	assert.Equal(t, "1.1.0", cfg.Image.Tag)
	assert.Equal(t, 10*time.Second, cfg.Compose.StatusDelay)
	assert.Equal(t, "unix:///var/run/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.NonInteractive)
	assert.True(t, cfg.Credentials.AllowUnrecognized)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("HAJIMI_DEPLOY_IMAGE_TAG", "2.0.0")
	t.Setenv("HAJIMI_DEPLOY_COMPOSE_STATUS_DELAY", "1s")
	t.Setenv("HAJIMI_DEPLOY_LOG_LEVEL", "info")
	t.Setenv("HAJIMI_DEPLOY_NON_INTERACTIVE", "true")
	t.Setenv("HAJIMI_DEPLOY_CREDENTIALS_GITHUB_TOKENS", "ghp_abc123def456")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", cfg.Image.Tag)
	assert.Equal(t, time.Second, cfg.Compose.StatusDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.NonInteractive)
	assert.Equal(t, "ghp_abc123def456", cfg.Credentials.GitHubTokens)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err) // Should not error, just use defaults

	assert.Equal(t, "hajimi-king", cfg.Image.Name)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"empty image name", "HAJIMI_DEPLOY_IMAGE_NAME", " "},
		{"empty tag", "HAJIMI_DEPLOY_IMAGE_TAG", " "},
		{"negative delay", "HAJIMI_DEPLOY_COMPOSE_STATUS_DELAY", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.val)

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debugLogs bool
		infoLogs  bool
		warnLogs  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
		{"invalid", false, false, true}, // falls back to warn
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level, Format: "text"}}, &buf)

			logger.Debug("debug line")
			logger.Info("info line")
			logger.Warn("warn line")

			out := buf.String()
			assert.Equal(t, tt.debugLogs, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.infoLogs, strings.Contains(out, "info line"))
			assert.Equal(t, tt.warnLogs, strings.Contains(out, "warn line"))
		})
	}
}

func TestSetupLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&Config{Log: LogConfig{Level: "info", Format: "json"}}, &buf)

	logger.Info("hello", "run_id", "abc")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestSetupLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&Config{Log: LogConfig{Level: "info", Format: "text"}}, &buf)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"HAJIMI_DEPLOY_IMAGE_NAME",
		"HAJIMI_DEPLOY_IMAGE_TAG",
		"HAJIMI_DEPLOY_COMPOSE_STATUS_DELAY",
		"HAJIMI_DEPLOY_DOCKER_HOST",
		"HAJIMI_DEPLOY_LOG_LEVEL",
		"HAJIMI_DEPLOY_LOG_FORMAT",
		"HAJIMI_DEPLOY_NON_INTERACTIVE",
		"HAJIMI_DEPLOY_CREDENTIALS_GITHUB_TOKENS",
		"HAJIMI_DEPLOY_CREDENTIALS_ALLOW_UNRECOGNIZED",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
