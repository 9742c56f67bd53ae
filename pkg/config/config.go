// Package config loads controller settings from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides. Each one, when
// set and non-empty, replaces the corresponding file value.
const (
	EnvBroker        = "QTPY_BROKER"
	EnvPort          = "QTPY_PORT"
	EnvGroup         = "QTPY_GROUP"
	EnvClientPrefix  = "QTPY_CLIENT_ID_PREFIX"
	EnvScanTimeout   = "QTPY_SCAN_TIMEOUT"
	EnvActionTimeout = "QTPY_ACTION_TIMEOUT"
)

// Config holds the controller settings.
type Config struct {
	// Broker is the MQTT broker host. Empty means locate one via mDNS.
	Broker string `yaml:"broker"`

	// Port is the broker's TCP port.
	Port int `yaml:"port"`

	// Group is the MQTT group to operate in.
	Group string `yaml:"group"`

	// ClientIDPrefix prefixes generated controller identities.
	ClientIDPrefix string `yaml:"client_id_prefix"`

	// ScanTimeout is the discovery drain window.
	ScanTimeout time.Duration `yaml:"scan_timeout"`

	// ActionTimeout bounds one command/result exchange.
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// LogFile receives the CBOR protocol event log when set.
	LogFile string `yaml:"log_file"`
}

// Default returns the settings used when no file or overrides exist.
func Default() Config {
	return Config{
		Port:           1883,
		Group:          "centrifuge",
		ClientIDPrefix: "controller",
		ScanTimeout:    500 * time.Millisecond,
		ActionTimeout:  5 * time.Second,
	}
}

// Load reads the file at path, if any, and applies environment
// overrides on top of the defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBroker); v != "" {
		c.Broker = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvGroup); v != "" {
		c.Group = v
	}
	if v := os.Getenv(EnvClientPrefix); v != "" {
		c.ClientIDPrefix = v
	}
	if v := os.Getenv(EnvScanTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvScanTimeout, err)
		}
		c.ScanTimeout = d
	}
	if v := os.Getenv(EnvActionTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvActionTimeout, err)
		}
		c.ActionTimeout = d
	}
	return nil
}

// Validate rejects settings no scan or session could run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Group == "" {
		return fmt.Errorf("group must not be empty")
	}
	if c.ScanTimeout <= 0 {
		return fmt.Errorf("scan_timeout must be positive")
	}
	if c.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be positive")
	}
	return nil
}
