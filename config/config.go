// Package config loads and validates Blizzard host configuration from a
// JSON file with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Load policy constants control how the host treats a failed plugin load.
const (
	// PolicyFailFast aborts startup on the first registration failure.
	PolicyFailFast = "fail-fast"
	// PolicySkip logs the failure and continues with the remaining plugins.
	PolicySkip = "skip"
)

// Environment variable overrides
const (
	EnvNATSURL     = "BLIZZARD_NATS_URL"
	EnvHostName    = "BLIZZARD_HOST_NAME"
	EnvMetricsAddr = "BLIZZARD_METRICS_ADDR"
	EnvLoadPolicy  = "BLIZZARD_LOAD_POLICY"
)

// HostConfig configures the plugin host.
type HostConfig struct {
	Name            string `json:"name"`             // Host identity, used in announce payloads
	DiscoveryPrefix string `json:"discovery_prefix"` // Subject prefix for descriptor announcements
	RegistrySubject string `json:"registry_subject"` // Request/reply subject for inventory queries
	LoadPolicy      string `json:"load_policy"`      // "fail-fast" or "skip"
	MetricsAddr     string `json:"metrics_addr"`     // HTTP listen address for /metrics, empty disables
}

// NATSConfig configures the bus connection.
type NATSConfig struct {
	URL              string `json:"url"`
	MaxReconnects    int    `json:"max_reconnects"`
	ReconnectWaitMS  int    `json:"reconnect_wait_ms"`
	ConnectTimeoutMS int    `json:"connect_timeout_ms"`
	CircuitThreshold int32  `json:"circuit_threshold"`
}

// ReconnectWait returns the reconnect wait as a duration.
func (n NATSConfig) ReconnectWait() time.Duration {
	return time.Duration(n.ReconnectWaitMS) * time.Millisecond
}

// ConnectTimeout returns the connect timeout as a duration.
func (n NATSConfig) ConnectTimeout() time.Duration {
	return time.Duration(n.ConnectTimeoutMS) * time.Millisecond
}

// Config represents the complete host configuration.
type Config struct {
	Version string     `json:"version"`
	Host    HostConfig `json:"host"`
	NATS    NATSConfig `json:"nats"`
}

// DefaultConfig returns a configuration with working defaults for a local
// development bus.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Host: HostConfig{
			Name:            "blizzard-host",
			DiscoveryPrefix: "blizzard.discovery",
			RegistrySubject: "blizzard.registry.list",
			LoadPolicy:      PolicyFailFast,
		},
		NATS: NATSConfig{
			URL:              "nats://localhost:4222",
			MaxReconnects:    -1,
			ReconnectWaitMS:  2000,
			ConnectTimeoutMS: 5000,
			CircuitThreshold: 5,
		},
	}
}

// Load reads configuration from path, layering it over defaults and then
// applying environment overrides. An empty path yields defaults plus
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path),
					"Config", "Load", "config file lookup")
			}
			return nil, errors.WrapInvalid(err, "Config", "Load", "config file read")
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "config file parse")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv(EnvHostName); v != "" {
		c.Host.Name = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Host.MetricsAddr = v
	}
	if v := os.Getenv(EnvLoadPolicy); v != "" {
		c.Host.LoadPolicy = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Host.Name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: host.name", errors.ErrMissingConfig),
			"Config", "Validate", "host name check")
	}
	if c.Host.DiscoveryPrefix == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: host.discovery_prefix", errors.ErrMissingConfig),
			"Config", "Validate", "discovery prefix check")
	}
	if c.Host.RegistrySubject == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: host.registry_subject", errors.ErrMissingConfig),
			"Config", "Validate", "registry subject check")
	}

	switch c.Host.LoadPolicy {
	case PolicyFailFast, PolicySkip:
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: host.load_policy %q (want %q or %q)",
				errors.ErrInvalidConfig, c.Host.LoadPolicy, PolicyFailFast, PolicySkip),
			"Config", "Validate", "load policy check")
	}

	if c.NATS.URL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nats.url", errors.ErrMissingConfig),
			"Config", "Validate", "nats url check")
	}
	if c.NATS.ReconnectWaitMS < 0 || c.NATS.ConnectTimeoutMS < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: negative nats timing value", errors.ErrInvalidConfig),
			"Config", "Validate", "nats timing check")
	}
	if c.NATS.CircuitThreshold < 1 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nats.circuit_threshold must be >= 1 (got %s)",
				errors.ErrInvalidConfig, strconv.Itoa(int(c.NATS.CircuitThreshold))),
			"Config", "Validate", "circuit threshold check")
	}

	return nil
}
