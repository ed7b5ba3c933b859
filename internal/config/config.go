// Package config loads the daemon configuration from YAML with environment
// variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/openlowpan/rcpd/internal/events"
	"github.com/openlowpan/rcpd/internal/trace"
	"github.com/openlowpan/rcpd/internal/transport"
)

// Config holds all daemon configuration.
type Config struct {
	// Serial is the UART link to the RCP firmware.
	Serial transport.SerialConfig `yaml:"serial" json:"serial"`

	// Client tunes the transaction manager.
	Client ClientConfig `yaml:"client" json:"client"`

	// Monitor is the local HTTP/WebSocket diagnostics surface.
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`

	// NATS publishes device notifications to external subscribers.
	NATS NATSConfig `yaml:"nats" json:"nats"`

	// Trace records raw frame traffic to CSV.
	Trace trace.Config `yaml:"trace" json:"trace"`

	Log LogConfig `yaml:"log" json:"log"`

	path string // file path for save/load
}

type ClientConfig struct {
	RequestTimeoutMs int `yaml:"request_timeout_ms" json:"requestTimeoutMs" env:"RCPD_REQUEST_TIMEOUT_MS"`
	ResetTimeoutMs   int `yaml:"reset_timeout_ms" json:"resetTimeoutMs" env:"RCPD_RESET_TIMEOUT_MS"`
}

// RequestTimeout converts the configured millisecond value, zero meaning
// "use the client default".
func (c ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c ClientConfig) ResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutMs) * time.Millisecond
}

type MonitorConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled" env:"RCPD_MONITOR_ENABLED"`
	ListenAddr string `yaml:"listen_addr" json:"listenAddr" env:"RCPD_MONITOR_LISTEN_ADDR"`
}

type NATSConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled" env:"RCPD_NATS_ENABLED"`
	events.NATSConfig `yaml:",inline"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"RCPD_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" json:"pretty" env:"RCPD_LOG_PRETTY"`
}

// Default returns a config with sensible defaults for a border router host.
func Default() *Config {
	return &Config{
		Serial: transport.SerialConfig{
			Path:       "/dev/ttyACM0",
			Baud:       115200,
			ReadBuffer: 32,
		},
		Client: ClientConfig{
			RequestTimeoutMs: 2000,
			ResetTimeoutMs:   5000,
		},
		Monitor: MonitorConfig{
			Enabled:    true,
			ListenAddr: ":8710",
		},
		NATS: NATSConfig{
			Enabled: false,
			NATSConfig: events.NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				SubjectPrefix: "rcp.events",
			},
		},
		Trace: trace.Config{
			Enabled: false,
			Path:    "/var/log/rcpd",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}
	return cfg, nil
}

// Save writes the config back to its YAML file.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = "/etc/rcpd/config.yaml"
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// ToJSON serializes the config for the monitor API.
func (c *Config) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}
