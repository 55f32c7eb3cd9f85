// Package kafka publishes window summaries to Kafka as CloudEvents.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/jittakal/sensorwindow/internal/encoder"
	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/internal/validator"
	"github.com/jittakal/sensorwindow/internal/window"
)

// CloudEvent attributes of published summaries.
const (
	EventTypeWindowSummary = "io.sensorwindow.window.summary"
	EventSourcePrefix      = "sensorwindow/"
)

// Publish outcomes recorded in metrics.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusInvalid = "invalid"
)

// Config contains Kafka publisher configuration.
type Config struct {
	BootstrapServers []string
	Topic            string
	Security         SecurityConfig
	Compression      string
	RequiredAcks     int
	RetryMax         int
	RetryBackoff     time.Duration
	Idempotent       bool
}

// MetricsCollector defines metrics operations for the publisher.
type MetricsCollector interface {
	IncEventsPublished(topic string, status string)
	ObservePublishDuration(topic string, duration float64)
}

// Publisher sends one CloudEvent per summary. The record key is the source
// name so that summaries of one source stay in partition order.
type Publisher struct {
	producer  sarama.SyncProducer
	topic     string
	encoder   encoder.Encoder
	validator *validator.SummaryValidator
	logger    *slog.Logger
	metrics   MetricsCollector
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher creates a publisher connected to the configured brokers.
func NewPublisher(
	cfg Config,
	enc encoder.Encoder,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*Publisher, error) {
	if len(cfg.BootstrapServers) == 0 {
		return nil, fmt.Errorf("kafka bootstrap servers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	saramaConfig, err := newSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.BootstrapServers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	logger.Info("kafka publisher created",
		"bootstrap_servers", cfg.BootstrapServers,
		"topic", cfg.Topic,
		"security_protocol", cfg.Security.SecurityProtocol,
		"format", enc.Format(),
	)

	return NewPublisherWithProducer(producer, cfg.Topic, enc, logger, metrics), nil
}

// NewPublisherWithProducer creates a publisher on an existing producer.
func NewPublisherWithProducer(
	producer sarama.SyncProducer,
	topic string,
	enc encoder.Encoder,
	logger *slog.Logger,
	metrics MetricsCollector,
) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Publisher{
		producer:  producer,
		topic:     topic,
		encoder:   enc,
		validator: validator.NewSummaryValidator(),
		logger:    logger,
		metrics:   metrics,
	}
}

func newSaramaConfig(cfg Config) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.ClientID = "sensorwindow"
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = requiredAcks(cfg.RequiredAcks)
	saramaConfig.Producer.Compression = parseCompressionType(cfg.Compression)
	if cfg.RetryMax > 0 {
		saramaConfig.Producer.Retry.Max = cfg.RetryMax
	}
	if cfg.RetryBackoff > 0 {
		saramaConfig.Producer.Retry.Backoff = cfg.RetryBackoff
	}

	// Idempotent producer requires acks from all replicas and one in-flight request.
	if cfg.Idempotent {
		saramaConfig.Producer.Idempotent = true
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
		saramaConfig.Net.MaxOpenRequests = 1
	}

	if err := configureSecurity(saramaConfig, cfg.Security); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}
	if err := saramaConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}
	return saramaConfig, nil
}

// Publish sends the summary and blocks until the broker acknowledges it.
func (p *Publisher) Publish(ctx context.Context, s window.Summary) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: errors.ErrPublisherClosed}
	}
	if err := ctx.Err(); err != nil {
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: err}
	}

	if err := p.validator.Validate(s); err != nil {
		p.metrics.IncEventsPublished(p.topic, StatusInvalid)
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: err}
	}

	event, err := NewSummaryEvent(s, p.encoder)
	if err != nil {
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: err}
	}
	value, err := json.Marshal(event)
	if err != nil {
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: fmt.Errorf("failed to marshal CloudEvent: %w", err)}
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(s.Source),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("ce_specversion"), Value: []byte(event.SpecVersion())},
			{Key: []byte("ce_type"), Value: []byte(event.Type())},
			{Key: []byte("ce_source"), Value: []byte(event.Source())},
			{Key: []byte("ce_id"), Value: []byte(event.ID())},
			{Key: []byte("content-type"), Value: []byte(cloudevents.ApplicationCloudEventsJSON)},
		},
		Timestamp: s.ObservedAt,
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	p.metrics.ObservePublishDuration(p.topic, time.Since(start).Seconds())
	if err != nil {
		p.metrics.IncEventsPublished(p.topic, StatusFailure)
		return &errors.PublishError{Topic: p.topic, Source: s.Source, Err: err}
	}
	p.metrics.IncEventsPublished(p.topic, StatusSuccess)

	p.logger.Debug("summary published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"event_id", event.ID(),
		"source", s.Source,
	)
	return nil
}

// Close closes the underlying producer. Publishing after Close fails with
// ErrPublisherClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.logger.Info("closing kafka publisher", "topic", p.topic)

	if err := p.producer.Close(); err != nil {
		p.logger.Error("error closing producer", "error", err)
		return err
	}
	return nil
}

// NewSummaryEvent wraps an encoded summary in a CloudEvent.
func NewSummaryEvent(s window.Summary, enc encoder.Encoder) (cloudevents.Event, error) {
	payload, err := enc.Encode(s)
	if err != nil {
		return cloudevents.Event{}, err
	}

	event := cloudevents.NewEvent()
	event.SetSpecVersion(cloudevents.VersionV1)
	event.SetID(uuid.New().String())
	event.SetType(EventTypeWindowSummary)
	event.SetSource(EventSourcePrefix + s.Source)
	event.SetSubject(s.Source)
	event.SetTime(s.ObservedAt)
	if err := event.SetData(enc.ContentType(), payload); err != nil {
		return cloudevents.Event{}, fmt.Errorf("failed to set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return cloudevents.Event{}, fmt.Errorf("invalid CloudEvent: %w", err)
	}
	return event, nil
}

func requiredAcks(acks int) sarama.RequiredAcks {
	switch acks {
	case 0:
		return sarama.NoResponse
	case 1:
		return sarama.WaitForLocal
	default:
		return sarama.WaitForAll
	}
}

// parseCompressionType parses compression type string
func parseCompressionType(compressionType string) sarama.CompressionCodec {
	switch strings.ToLower(compressionType) {
	case "gzip":
		return sarama.CompressionGZIP
	case "snappy":
		return sarama.CompressionSnappy
	case "lz4":
		return sarama.CompressionLZ4
	case "zstd":
		return sarama.CompressionZSTD
	default:
		return sarama.CompressionNone
	}
}

type nopMetrics struct{}

func (nopMetrics) IncEventsPublished(string, string)      {}
func (nopMetrics) ObservePublishDuration(string, float64) {}
