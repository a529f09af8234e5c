package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/ScanFlow/internal/adapters/device"
	"github.com/ghalamif/ScanFlow/internal/app/history"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

const (
	SinkHTTP      = "http"
	SinkDatastore = "datastore"
	SinkFunction  = "function"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultScanTimeout applies when a config file omits capture.scan_timeout.
	DefaultScanTimeout = 30 * time.Second
)

type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	History HistoryConfig `yaml:"history"`
	Sinks   []SinkConfig  `yaml:"sinks"`
	Metrics MetricsConfig `yaml:"metrics"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type CaptureConfig struct {
	device.Config `yaml:",inline"`
	ports.Policy  `yaml:",inline"`
}

type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// SinkConfig describes one dispatch destination. Order in the config file
// is dispatch order.
type SinkConfig struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`
	Critical bool          `yaml:"critical"`
	Timeout  time.Duration `yaml:"timeout"`

	// http and function
	URL string `yaml:"url"`
	// http: JSON key carrying the decoded value, "code" or "value"
	ValueKey string `yaml:"value_key"`
	// function
	BearerToken    string `yaml:"bearer_token"`
	BearerTokenEnv string `yaml:"bearer_token_env"`

	// datastore
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// Token resolves the bearer credential, preferring the environment.
func (s SinkConfig) Token() string {
	if s.BearerTokenEnv != "" {
		if v := os.Getenv(s.BearerTokenEnv); v != "" {
			return v
		}
	}
	return s.BearerToken
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	// scan_timeout: 0 is meaningful (wait until stopped), so the default
	// only fills a missing key.
	var present struct {
		Capture struct {
			ScanTimeout *time.Duration `yaml:"scan_timeout"`
		} `yaml:"capture"`
	}
	if err := yaml.Unmarshal(raw, &present); err != nil {
		return nil, err
	}
	if present.Capture.ScanTimeout == nil {
		cfg.Capture.ScanTimeout = DefaultScanTimeout
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero values. Capture.ScanTimeout is left alone: zero
// means listening runs until the session is stopped.
func (c *Config) ApplyDefaults() {
	c.Capture.Config.ApplyDefaults()
	if len(c.Capture.Formats) == 0 {
		c.Capture.Formats = append([]domain.Symbology(nil), domain.CanonicalSymbologies...)
	}
	if c.Capture.FacingMode == "" {
		c.Capture.FacingMode = ports.FacingEnvironment
	}
	if c.Capture.AcquireTimeout == 0 {
		c.Capture.AcquireTimeout = 5 * time.Second
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = history.DefaultCapacity
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}

	for i := range c.Sinks {
		s := &c.Sinks[i]
		if s.Name == "" {
			s.Name = s.Kind
		}
		if s.Timeout == 0 {
			s.Timeout = 10 * time.Second
		}
		switch s.Kind {
		case SinkHTTP:
			if s.ValueKey == "" {
				s.ValueKey = "code"
			}
		case SinkDatastore:
			if s.Driver == "" {
				s.Driver = DriverPostgres
			}
			if s.Table == "" {
				s.Table = "shipments"
			}
		case SinkFunction:
			s.Critical = false
		}
	}
}

func (c *Config) Validate() error {
	if err := c.Capture.Config.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}
	if c.Capture.FacingMode != ports.FacingEnvironment && c.Capture.FacingMode != ports.FacingUser {
		return fmt.Errorf("capture.facing_mode %q must be environment or user", c.Capture.FacingMode)
	}
	if c.Capture.AcquireTimeout < 0 || c.Capture.ScanTimeout < 0 {
		return errors.New("capture timeouts must not be negative")
	}
	if c.History.Capacity < 0 {
		return errors.New("history.capacity must be > 0")
	}
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink must be configured")
	}

	seen := make(map[string]bool, len(c.Sinks))
	for i, s := range c.Sinks {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("sinks[%d]: duplicate sink name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func (s SinkConfig) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	switch s.Kind {
	case SinkHTTP:
		if s.URL == "" {
			return errors.New("url is required for http sinks")
		}
		if s.ValueKey != "code" && s.ValueKey != "value" {
			return fmt.Errorf("value_key %q must be code or value", s.ValueKey)
		}
	case SinkFunction:
		if s.URL == "" {
			return errors.New("url is required for function sinks")
		}
	case SinkDatastore:
		if s.DSN == "" {
			return errors.New("dsn is required for datastore sinks")
		}
		if s.Driver != DriverPostgres && s.Driver != DriverSQLite {
			return fmt.Errorf("driver %q must be postgres or sqlite", s.Driver)
		}
	default:
		return fmt.Errorf("unknown sink kind %q", s.Kind)
	}
	return nil
}
