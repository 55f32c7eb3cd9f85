package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jittakal/sensorwindow/internal/config/dto"
	"github.com/spf13/viper"
)

// Per-source defaults applied to zero fields after unmarshal.
const (
	DefaultSourceName         = "1"
	DefaultCapacity           = 500
	DefaultNotifyEvery        = 20
	DefaultLowWatermark       = 200
	DefaultHighWatermark      = 4000
	DefaultReadErrorBackoffMS = 100
	DefaultDialTimeoutMS      = 5000
	DefaultBaud               = 115200
	DefaultSimulatorInterval  = 1
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Only expand values containing a ${...} pattern
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applySourceDefaults(&config)

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "sensorwindow")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Kafka defaults
	l.v.SetDefault("kafka.enabled", false)
	l.v.SetDefault("kafka.topic", "sensorwindow.summaries")
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.format", "json")
	l.v.SetDefault("kafka.compression", "snappy")
	l.v.SetDefault("kafka.required_acks", -1)
	l.v.SetDefault("kafka.retry_max", 3)
	l.v.SetDefault("kafka.retry_backoff_ms", 100)
	l.v.SetDefault("kafka.idempotent", false)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.metrics.path", "/metrics")
	l.v.SetDefault("observability.health.port", 8080)

	// Shutdown defaults
	l.v.SetDefault("shutdown.timeout_seconds", 10)
}

// applySourceDefaults fills zero per-source fields. Sources are a list, so
// they cannot take viper defaults key by key.
func applySourceDefaults(config *dto.ApplicationConfig) {
	if len(config.Sources) == 0 {
		config.Sources = []dto.SourceConfig{{
			Name: DefaultSourceName,
			Type: dto.SourceSimulated,
		}}
	}

	for i := range config.Sources {
		s := &config.Sources[i]
		s.Name = os.ExpandEnv(s.Name)
		s.Device = os.ExpandEnv(s.Device)
		s.Address = os.ExpandEnv(s.Address)

		if s.Type == "" {
			s.Type = dto.SourceSimulated
		}
		s.Type = strings.ToLower(s.Type)
		if s.Capacity == 0 {
			s.Capacity = DefaultCapacity
		}
		if s.NotifyEvery <= 0 {
			s.NotifyEvery = DefaultNotifyEvery
		}
		if s.LowWatermark <= 0 {
			s.LowWatermark = DefaultLowWatermark
		}
		if s.HighWatermark <= 0 {
			s.HighWatermark = DefaultHighWatermark
		}
		if s.ReadErrorBackoffMS <= 0 {
			s.ReadErrorBackoffMS = DefaultReadErrorBackoffMS
		}
		if s.DialTimeoutMS <= 0 {
			s.DialTimeoutMS = DefaultDialTimeoutMS
		}
		if s.Baud <= 0 {
			s.Baud = DefaultBaud
		}
		if s.Simulator.IntervalMS <= 0 {
			s.Simulator.IntervalMS = DefaultSimulatorInterval
		}
	}
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	// Port validation
	if config.Observability.Health.Port < 1 || config.Observability.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", config.Observability.Health.Port)
	}
	if config.Observability.Metrics.Enabled {
		if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
		}
		if config.Observability.Metrics.Port == config.Observability.Health.Port {
			return fmt.Errorf("metrics and health ports must differ: %d", config.Observability.Metrics.Port)
		}
	}

	if config.Shutdown.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %d", config.Shutdown.TimeoutSeconds)
	}

	return nil
}
