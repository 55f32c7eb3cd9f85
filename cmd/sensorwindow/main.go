package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/sensorwindow/internal/acquisition"
	"github.com/jittakal/sensorwindow/internal/config"
	"github.com/jittakal/sensorwindow/internal/config/dto"
	"github.com/jittakal/sensorwindow/internal/encoder"
	"github.com/jittakal/sensorwindow/internal/kafka"
	"github.com/jittakal/sensorwindow/internal/monitor"
	"github.com/jittakal/sensorwindow/internal/observability"
	"github.com/jittakal/sensorwindow/internal/parser"
	"github.com/jittakal/sensorwindow/internal/server"
	"github.com/jittakal/sensorwindow/internal/simulator"
	"github.com/jittakal/sensorwindow/internal/transport"
	"github.com/jittakal/sensorwindow/pkg/reading"
	"github.com/jittakal/sensorwindow/pkg/stream"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	})
	logger.Info("starting sensorwindow",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
		"sources", len(cfg.Sources),
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Cleanup runs in reverse registration order
	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, func() error {
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
		logger.Debug("registered cleanup", "component", name)
	}
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Acquisition sessions
	sources := server.NewSources()
	var watched []monitor.Session
	for _, src := range cfg.Sources {
		session, err := newSession(ctx, src, logger, metrics)
		if err != nil {
			return err
		}
		sources.Add(session)

		if err := session.Start(); err != nil {
			// The session stays registered so readiness reports it.
			logger.Error("source unavailable", "source", src.Name, "type", src.Type, "error", err)
			continue
		}
		addCleanup("session-"+src.Name, session.Stop)
		watched = append(watched, session)
	}
	if len(watched) == 0 {
		return fmt.Errorf("no source could be started")
	}

	// Summary sink
	var sink monitor.Sink
	if cfg.Kafka.Enabled {
		publisher, err := newPublisher(cfg.Kafka, logger, metrics)
		if err != nil {
			return err
		}
		addCleanup("kafka-publisher", publisher.Close)
		sink = publisher
	}

	mon := monitor.New(watched, sink, logger, metrics)

	httpServer := server.NewServer(
		server.Config{
			HealthPort:     cfg.Observability.Health.Port,
			MetricsPort:    cfg.Observability.Metrics.Port,
			MetricsPath:    cfg.Observability.Metrics.Path,
			MetricsEnabled: cfg.Observability.Metrics.Enabled,
		},
		sources,
		sources,
		mon,
		registry,
		logger,
	)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout())
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.Run(ctx)
	}()

	logger.Info("application started successfully", "sources", sources.Names())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received termination signal", "signal", sig.String())
	case <-monitorDone:
		logger.Warn("all sources stopped")
	}

	logger.Info("initiating graceful shutdown")
	cancel()
	<-monitorDone

	logger.Info("application stopped successfully")
	return nil
}

// newSession builds a stopped acquisition session for one configured source.
func newSession(
	ctx context.Context,
	src dto.SourceConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*acquisition.Session[reading.Reading], error) {
	open, err := newFactory(ctx, src, logger)
	if err != nil {
		return nil, err
	}

	session, err := acquisition.New[reading.Reading](acquisition.Config{
		Name:             src.Name,
		Capacity:         src.Capacity,
		NotifyEvery:      src.NotifyEvery,
		LowWatermark:     src.LowWatermark,
		HighWatermark:    src.HighWatermark,
		ReadErrorBackoff: src.ReadErrorBackoff(),
	}, open, parser.ParseAccel, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create session %s: %w", src.Name, err)
	}
	return session, nil
}

func newFactory(ctx context.Context, src dto.SourceConfig, logger *slog.Logger) (stream.Factory, error) {
	switch src.Type {
	case dto.SourceSerial:
		return func() (stream.Stream, error) {
			conn, err := transport.OpenSerial(src.Device, src.Baud)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}, nil
	case dto.SourceTCP:
		return func() (stream.Stream, error) {
			conn, err := transport.DialTCP(src.Address, src.DialTimeout())
			if err != nil {
				return nil, err
			}
			return conn, nil
		}, nil
	case dto.SourceSimulated:
		board := simulator.NewBoard(simulator.Config{
			Interval:           src.Simulator.Interval(),
			Noise:              src.Simulator.Noise,
			UnknownTimeSamples: src.Simulator.UnknownTimeSamples,
			Seed:               src.Simulator.Seed,
		}, logger.With("board", src.Name))
		return board.Factory(ctx), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s (supported: serial, tcp, simulated)", src.Type)
	}
}

func newPublisher(cfg dto.KafkaConfig, logger *slog.Logger, metrics *observability.Metrics) (*kafka.Publisher, error) {
	enc, err := encoder.NewFactory(encoder.Format(cfg.Format)).CreateEncoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		BootstrapServers: cfg.BootstrapServers,
		Topic:            cfg.Topic,
		Security: kafka.SecurityConfig{
			SecurityProtocol:   cfg.SecurityProtocol,
			SASLMechanism:      cfg.SASLMechanism,
			SASLUsername:       cfg.SASLUsername,
			SASLPassword:       cfg.SASLPassword,
			MSKRegion:          cfg.MSKRegion,
			CACertFile:         cfg.CACertFile,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
		Compression:  cfg.Compression,
		RequiredAcks: cfg.RequiredAcks,
		RetryMax:     cfg.RetryMax,
		RetryBackoff: cfg.RetryBackoff(),
		Idempotent:   cfg.Idempotent,
	}, enc, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, nil
}
