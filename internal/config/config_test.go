package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/groupcall/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 10*time.Second, cfg.NegotiationTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReleaseTimeout)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers)
	assert.Equal(t, "kick", cfg.Backpressure)
	assert.InDelta(t, 20.0, cfg.SignalRate, 0.001)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: debug
port: 9000
negotiation_timeout: 3s
backpressure: drop
ice_servers:
  - stun:stun.example.org:3478
`), 0o600))
	t.Setenv("GROUPCALL_PORT", "9100")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.NegotiationTimeout)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, cfg.ICEServers)
}

func TestLoadRejectsBadBackpressure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backpressure: ignore\n"), 0o600))
	_, err := config.LoadFile(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [8080\nmode: debug\n"), 0o600))
	_, err := config.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
