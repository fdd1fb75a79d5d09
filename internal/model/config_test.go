package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, 60, cfg.Server.TimeoutSec)
	assert.Equal(t, 30, cfg.Notifications.PollIntervalSec)
	assert.Equal(t, "en", cfg.Notifications.Language)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  base_url: https://health.example.com
  timeout_sec: 90
notifications:
  poll_interval_sec: 15
  language: hi
display:
  name: Asha
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://health.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 90, cfg.Server.TimeoutSec)
	assert.Equal(t, 15, cfg.Notifications.PollIntervalSec)
	assert.Equal(t, "hi", cfg.Notifications.Language)
	assert.Equal(t, "Asha", cfg.Display.Name)

	// Keys the file omits keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownLanguage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
notifications:
  language: fr
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unsupported language")
}

func TestLoadConfigNormalizesBadInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
notifications:
  poll_interval_sec: -5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Notifications.PollIntervalSec)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "https://health.example.com"
	cfg.Notifications.Language = "hi"
	cfg.Display.Name = "Asha"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.BaseURL, loaded.Server.BaseURL)
	assert.Equal(t, "hi", loaded.Notifications.Language)
	assert.Equal(t, "Asha", loaded.Display.Name)
}
