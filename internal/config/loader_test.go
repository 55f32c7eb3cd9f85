package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jittakal/sensorwindow/internal/config/dto"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}
	return configFile
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("expected non-nil loader")
	}
	if loader.v == nil {
		t.Fatal("expected non-nil viper instance")
	}
}

func TestLoader_LoadWithValidConfig(t *testing.T) {
	configFile := writeConfig(t, `
application:
  name: test-app
  version: 1.0.0

sources:
  - name: "1"
    type: serial
    device: /dev/ttyACM0
    capacity: 250
  - name: "2"
    type: tcp
    address: localhost:7001
    notify_every: 10
    low_watermark: 100
    high_watermark: 2000
  - name: sim
    type: simulated
    simulator:
      interval_ms: 5
      noise: 10

kafka:
  enabled: true
  bootstrap_servers:
    - localhost:9092
  topic: readings
  format: avro
`)

	config, err := NewLoader().Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Application.Name != "test-app" {
		t.Errorf("Application.Name = %s, want test-app", config.Application.Name)
	}
	if len(config.Sources) != 3 {
		t.Fatalf("len(Sources) = %d, want 3", len(config.Sources))
	}

	serial := config.Sources[0]
	if serial.Type != dto.SourceSerial || serial.Device != "/dev/ttyACM0" {
		t.Errorf("Sources[0] = %+v, want serial on /dev/ttyACM0", serial)
	}
	if serial.Capacity != 250 {
		t.Errorf("Sources[0].Capacity = %d, want 250", serial.Capacity)
	}
	if serial.Baud != DefaultBaud {
		t.Errorf("Sources[0].Baud = %d, want %d", serial.Baud, DefaultBaud)
	}

	tcp := config.Sources[1]
	if tcp.Address != "localhost:7001" {
		t.Errorf("Sources[1].Address = %s, want localhost:7001", tcp.Address)
	}
	if tcp.NotifyEvery != 10 || tcp.LowWatermark != 100 || tcp.HighWatermark != 2000 {
		t.Errorf("Sources[1] thresholds = %d/%d/%d, want 10/100/2000",
			tcp.NotifyEvery, tcp.LowWatermark, tcp.HighWatermark)
	}
	if tcp.Capacity != DefaultCapacity {
		t.Errorf("Sources[1].Capacity = %d, want %d", tcp.Capacity, DefaultCapacity)
	}

	sim := config.Sources[2]
	if sim.Simulator.Interval().Milliseconds() != 5 {
		t.Errorf("Sources[2].Simulator.Interval() = %v, want 5ms", sim.Simulator.Interval())
	}
	if sim.Simulator.Noise != 10 {
		t.Errorf("Sources[2].Simulator.Noise = %d, want 10", sim.Simulator.Noise)
	}

	if !config.Kafka.Enabled || config.Kafka.Topic != "readings" || config.Kafka.Format != "avro" {
		t.Errorf("Kafka = %+v, want enabled avro publisher on readings", config.Kafka)
	}
}

func TestLoader_Defaults(t *testing.T) {
	config, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(config.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1", len(config.Sources))
	}
	source := config.Sources[0]
	if source.Name != DefaultSourceName || source.Type != dto.SourceSimulated {
		t.Errorf("default source = %s/%s, want %s/%s",
			source.Name, source.Type, DefaultSourceName, dto.SourceSimulated)
	}
	if source.Capacity != DefaultCapacity {
		t.Errorf("Capacity = %d, want %d", source.Capacity, DefaultCapacity)
	}
	if source.NotifyEvery != DefaultNotifyEvery {
		t.Errorf("NotifyEvery = %d, want %d", source.NotifyEvery, DefaultNotifyEvery)
	}
	if source.LowWatermark != DefaultLowWatermark || source.HighWatermark != DefaultHighWatermark {
		t.Errorf("watermarks = %d/%d, want %d/%d",
			source.LowWatermark, source.HighWatermark, DefaultLowWatermark, DefaultHighWatermark)
	}
	if source.ReadErrorBackoff().Milliseconds() != DefaultReadErrorBackoffMS {
		t.Errorf("ReadErrorBackoff() = %v", source.ReadErrorBackoff())
	}

	if config.Kafka.Enabled {
		t.Error("Kafka.Enabled = true, want false")
	}
	if config.Kafka.RequiredAcks != -1 {
		t.Errorf("Kafka.RequiredAcks = %d, want -1", config.Kafka.RequiredAcks)
	}
	if config.Observability.Health.Port != 8080 {
		t.Errorf("Health.Port = %d, want 8080", config.Observability.Health.Port)
	}
	if config.Observability.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %s, want /metrics", config.Observability.Metrics.Path)
	}
	if config.Shutdown.Timeout().Seconds() != 10 {
		t.Errorf("Shutdown.Timeout() = %v, want 10s", config.Shutdown.Timeout())
	}
}

func TestLoader_LoadWithMissingFile(t *testing.T) {
	// A missing file falls back to defaults and environment variables.
	config, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Application.Name != "sensorwindow" {
		t.Errorf("Application.Name = %s, want sensorwindow", config.Application.Name)
	}
}

func TestLoader_LoadWithInvalidYAML(t *testing.T) {
	configFile := writeConfig(t, "sources: [unclosed\n")

	if _, err := NewLoader().Load(configFile); err == nil {
		t.Fatal("Load() error = nil, want read error")
	}
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	t.Setenv("APP_KAFKA_TOPIC", "from-env")
	t.Setenv("APP_OBSERVABILITY_HEALTH_PORT", "18080")

	config, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Kafka.Topic != "from-env" {
		t.Errorf("Kafka.Topic = %s, want from-env", config.Kafka.Topic)
	}
	if config.Observability.Health.Port != 18080 {
		t.Errorf("Health.Port = %d, want 18080", config.Observability.Health.Port)
	}
}

func TestLoader_ExpandsVariables(t *testing.T) {
	t.Setenv("SENSORWINDOW_TEST_PASSWORD", "s3cret")
	t.Setenv("SENSORWINDOW_TEST_DEVICE", "/dev/ttyUSB3")

	configFile := writeConfig(t, `
sources:
  - name: "1"
    type: serial
    device: ${SENSORWINDOW_TEST_DEVICE}
kafka:
  sasl_password: ${SENSORWINDOW_TEST_PASSWORD}
`)

	config, err := NewLoader().Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Kafka.SASLPassword != "s3cret" {
		t.Errorf("Kafka.SASLPassword = %q, want s3cret", config.Kafka.SASLPassword)
	}
	if config.Sources[0].Device != "/dev/ttyUSB3" {
		t.Errorf("Sources[0].Device = %q, want /dev/ttyUSB3", config.Sources[0].Device)
	}
}

func TestLoader_LoadRejectsInvalidSources(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "serial without device",
			content: `
sources:
  - name: "1"
    type: serial
`,
			wantErr: "device is required",
		},
		{
			name: "duplicate names",
			content: `
sources:
  - name: "1"
  - name: "1"
`,
			wantErr: "duplicate source name",
		},
		{
			name: "unknown type",
			content: `
sources:
  - name: "1"
    type: bluetooth
`,
			wantErr: "unsupported type",
		},
		{
			name: "negative capacity",
			content: `
sources:
  - name: "1"
    capacity: -5
`,
			wantErr: "capacity must be positive",
		},
		{
			name: "kafka without brokers",
			content: `
kafka:
  enabled: true
`,
			wantErr: "bootstrap servers are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	valid := func() *dto.ApplicationConfig {
		return &dto.ApplicationConfig{
			Application: dto.ApplicationInfo{Name: "sensorwindow"},
			Sources: []dto.SourceConfig{{
				Name:          "1",
				Type:          dto.SourceSimulated,
				Capacity:      10,
				LowWatermark:  200,
				HighWatermark: 4000,
			}},
			Observability: dto.ObservabilityConfig{
				Metrics: dto.MetricsConfig{Enabled: true, Port: 9090},
				Health:  dto.HealthConfig{Port: 8080},
			},
			Shutdown: dto.ShutdownConfig{TimeoutSeconds: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*dto.ApplicationConfig)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*dto.ApplicationConfig) {},
			wantErr: false,
		},
		{
			name: "invalid health port",
			mutate: func(c *dto.ApplicationConfig) {
				c.Observability.Health.Port = 0
			},
			wantErr: true,
		},
		{
			name: "invalid metrics port",
			mutate: func(c *dto.ApplicationConfig) {
				c.Observability.Metrics.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "metrics port ignored when disabled",
			mutate: func(c *dto.ApplicationConfig) {
				c.Observability.Metrics.Enabled = false
				c.Observability.Metrics.Port = 0
			},
			wantErr: false,
		},
		{
			name: "shared ports",
			mutate: func(c *dto.ApplicationConfig) {
				c.Observability.Metrics.Port = 8080
			},
			wantErr: true,
		},
		{
			name: "zero shutdown timeout",
			mutate: func(c *dto.ApplicationConfig) {
				c.Shutdown.TimeoutSeconds = 0
			},
			wantErr: true,
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			err := loader.Validate(config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
