package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jittakal/sensorwindow/internal/observability"
	"github.com/jittakal/sensorwindow/internal/simulator"
)

var (
	// Command-line flags
	addr        = flag.String("addr", getEnv("SIM_ADDR", ":7001"), "address to listen on")
	interval    = flag.Duration("interval", simulator.DefaultInterval, "interval between samples")
	noise       = flag.Int("noise", simulator.DefaultNoise, "per-axis jitter in milli-g")
	unknownTime = flag.Int("unknown-time", 0, "number of initial samples sent with time -1")
	seed        = flag.Int64("seed", 0, "seed for deterministic samples (0 for random)")
	logLevel    = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  *logLevel,
		Format: "text",
		Output: "stderr",
	})

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen on %s: %v\n", *addr, err)
		os.Exit(1)
	}
	logger.Info("simulated board listening",
		"address", ln.Addr().String(),
		"interval", interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = simulator.Serve(ctx, ln, simulator.Config{
		Interval:           *interval,
		Noise:              *noise,
		UnknownTimeSamples: *unknownTime,
		Seed:               *seed,
	}, logger)
	if err != nil {
		logger.Error("simulator failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
