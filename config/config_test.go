package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "blizzard-host", cfg.Host.Name)
	assert.Equal(t, PolicyFailFast, cfg.Host.LoadPolicy)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait())
	assert.Equal(t, 5*time.Second, cfg.NATS.ConnectTimeout())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.json")
	content := `{
		"version": "2.0.0",
		"host": {
			"name": "gateway-host",
			"discovery_prefix": "blizzard.discovery",
			"registry_subject": "blizzard.registry.list",
			"load_policy": "skip"
		},
		"nats": {
			"url": "nats://bus:4222",
			"max_reconnects": 10,
			"reconnect_wait_ms": 500,
			"connect_timeout_ms": 1000,
			"circuit_threshold": 3
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gateway-host", cfg.Host.Name)
	assert.Equal(t, PolicySkip, cfg.Host.LoadPolicy)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, int32(3), cfg.NATS.CircuitThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvNATSURL, "nats://override:4222")
	t.Setenv(EnvHostName, "env-host")
	t.Setenv(EnvLoadPolicy, PolicySkip)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://override:4222", cfg.NATS.URL)
	assert.Equal(t, "env-host", cfg.Host.Name)
	assert.Equal(t, PolicySkip, cfg.Host.LoadPolicy)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty host name", func(c *Config) { c.Host.Name = "" }},
		{"empty discovery prefix", func(c *Config) { c.Host.DiscoveryPrefix = "" }},
		{"empty registry subject", func(c *Config) { c.Host.RegistrySubject = "" }},
		{"unknown load policy", func(c *Config) { c.Host.LoadPolicy = "maybe" }},
		{"empty nats url", func(c *Config) { c.NATS.URL = "" }},
		{"negative reconnect wait", func(c *Config) { c.NATS.ReconnectWaitMS = -1 }},
		{"zero circuit threshold", func(c *Config) { c.NATS.CircuitThreshold = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err) || errors.IsFatal(err))
		})
	}
}
