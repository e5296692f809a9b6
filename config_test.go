package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Device)
	assert.Equal(t, "active", cfg.Monitor.Mode)
	assert.Equal(t, 30*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 3, cfg.Monitor.MaxFailures)
	assert.False(t, cfg.Mqtt.Enable)
	assert.Equal(t, "homeassistant", cfg.Mqtt.DiscoveryPrefix)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serial:
  device: /dev/ttyUSB0
monitor:
  mode: passive
  pollInterval: 10s
mqtt:
  enable: true
  broker: broker.local
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, "passive", cfg.Monitor.Mode)
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval)
	assert.True(t, cfg.Mqtt.Enable)
	assert.Equal(t, "broker.local", cfg.Mqtt.Broker)

	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Monitor.MaxFailures)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PMS_SERIAL_DEVICE", "/dev/ttyS2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS2", cfg.Serial.Device)
}
