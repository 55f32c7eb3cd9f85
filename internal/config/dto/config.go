package dto

import (
	"fmt"
	"time"
)

// Source types.
const (
	SourceSerial    = "serial"
	SourceTCP       = "tcp"
	SourceSimulated = "simulated"
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Sources       []SourceConfig      `mapstructure:"sources"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Shutdown      ShutdownConfig      `mapstructure:"shutdown"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SourceConfig describes one device feeding one acquisition session.
type SourceConfig struct {
	Name               string          `mapstructure:"name"`
	Type               string          `mapstructure:"type"`
	Device             string          `mapstructure:"device"`
	Baud               int             `mapstructure:"baud"`
	Address            string          `mapstructure:"address"`
	DialTimeoutMS      int             `mapstructure:"dial_timeout_ms"`
	Capacity           int             `mapstructure:"capacity"`
	NotifyEvery        int             `mapstructure:"notify_every"`
	LowWatermark       int             `mapstructure:"low_watermark"`
	HighWatermark      int             `mapstructure:"high_watermark"`
	ReadErrorBackoffMS int             `mapstructure:"read_error_backoff_ms"`
	Simulator          SimulatorConfig `mapstructure:"simulator"`
}

// DialTimeout returns the TCP dial timeout.
func (s SourceConfig) DialTimeout() time.Duration {
	return time.Duration(s.DialTimeoutMS) * time.Millisecond
}

// ReadErrorBackoff returns the pause after a failed read.
func (s SourceConfig) ReadErrorBackoff() time.Duration {
	return time.Duration(s.ReadErrorBackoffMS) * time.Millisecond
}

// Validate validates a single source.
func (s *SourceConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] >= 0x80 {
			return fmt.Errorf("source %q: name must be ASCII", s.Name)
		}
	}
	if s.Capacity <= 0 {
		return fmt.Errorf("source %s: capacity must be positive, got %d", s.Name, s.Capacity)
	}
	if s.HighWatermark < s.LowWatermark {
		return fmt.Errorf("source %s: high_watermark %d is below low_watermark %d",
			s.Name, s.HighWatermark, s.LowWatermark)
	}

	switch s.Type {
	case SourceSerial:
		if s.Device == "" {
			return fmt.Errorf("source %s: device is required for serial sources", s.Name)
		}
	case SourceTCP:
		if s.Address == "" {
			return fmt.Errorf("source %s: address is required for tcp sources", s.Name)
		}
	case SourceSimulated:
	default:
		return fmt.Errorf("source %s: unsupported type: %s", s.Name, s.Type)
	}
	return nil
}

// SimulatorConfig configures an in-process simulated board.
type SimulatorConfig struct {
	IntervalMS         int   `mapstructure:"interval_ms"`
	Noise              int   `mapstructure:"noise"`
	UnknownTimeSamples int   `mapstructure:"unknown_time_samples"`
	Seed               int64 `mapstructure:"seed"`
}

// Interval returns the sample interval.
func (s SimulatorConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

// KafkaConfig contains Kafka-related configuration
type KafkaConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	BootstrapServers   []string `mapstructure:"bootstrap_servers"`
	Topic              string   `mapstructure:"topic"`
	SecurityProtocol   string   `mapstructure:"security_protocol"`
	SASLMechanism      string   `mapstructure:"sasl_mechanism"`
	SASLUsername       string   `mapstructure:"sasl_username"`
	SASLPassword       string   `mapstructure:"sasl_password"`
	MSKRegion          string   `mapstructure:"msk_region"`
	CACertFile         string   `mapstructure:"ca_cert_file"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Format             string   `mapstructure:"format"`
	Compression        string   `mapstructure:"compression"`
	RequiredAcks       int      `mapstructure:"required_acks"`
	RetryMax           int      `mapstructure:"retry_max"`
	RetryBackoffMS     int      `mapstructure:"retry_backoff_ms"`
	Idempotent         bool     `mapstructure:"idempotent"`
}

// RetryBackoff returns the producer retry backoff.
func (k KafkaConfig) RetryBackoff() time.Duration {
	return time.Duration(k.RetryBackoffMS) * time.Millisecond
}

// Validate validates Kafka configuration. A disabled publisher needs nothing.
func (k *KafkaConfig) Validate() error {
	if !k.Enabled {
		return nil
	}
	if len(k.BootstrapServers) == 0 {
		return fmt.Errorf("kafka bootstrap servers are required")
	}
	if k.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if k.Format != "json" && k.Format != "avro" {
		return fmt.Errorf("unsupported kafka format: %s", k.Format)
	}
	return nil
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// HealthConfig contains health check and snapshot API settings
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// ShutdownConfig contains shutdown settings
type ShutdownConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// Timeout returns the shutdown deadline.
func (s ShutdownConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.Application.Name == "" {
		return fmt.Errorf("application name is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Sources[i].Name]; dup {
			return fmt.Errorf("duplicate source name: %s", c.Sources[i].Name)
		}
		seen[c.Sources[i].Name] = struct{}{}
	}

	return c.Kafka.Validate()
}
