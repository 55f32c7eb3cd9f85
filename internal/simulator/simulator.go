// Package simulator emulates the accelerometer board firmware: it prints one
// "time\tx\ty\tz" line per sample and displays whatever is written back.
package simulator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/jaswdr/faker"

	"github.com/jittakal/sensorwindow/internal/transport"
	"github.com/jittakal/sensorwindow/pkg/stream"
)

// Default simulator settings.
const (
	DefaultInterval = time.Millisecond
	DefaultGravity  = 1024
	DefaultNoise    = 40
)

// Config contains board simulation configuration.
type Config struct {
	// Interval between samples.
	Interval time.Duration
	// Gravity is the resting z acceleration in milli-g.
	Gravity int
	// Noise bounds the uniform jitter added to every axis.
	Noise int
	// UnknownTimeSamples is the number of initial samples sent with time -1.
	UnknownTimeSamples int
	// Seed makes the generated values deterministic when non-zero.
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Gravity == 0 {
		c.Gravity = DefaultGravity
	}
	if c.Noise < 0 {
		c.Noise = 0
	} else if c.Noise == 0 {
		c.Noise = DefaultNoise
	}
	return c
}

// Board generates fake samples and records the characters received back.
type Board struct {
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	faker faker.Faker
	start time.Time
	sent  int
	acks  []byte
}

// NewBoard creates a board. Its clock starts at creation.
func NewBoard(config Config, logger *slog.Logger) *Board {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	f := faker.New()
	if config.Seed != 0 {
		f = faker.NewWithSeed(rand.NewSource(config.Seed))
	}

	return &Board{
		config: config,
		logger: logger,
		faker:  f,
		start:  time.Now(),
	}
}

// Line formats the next sample the way the firmware prints it.
func (b *Board) Line() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := time.Since(b.start).Milliseconds()
	if b.sent < b.config.UnknownTimeSamples {
		t = -1
	}
	b.sent++

	x := b.jitter()
	y := b.jitter()
	z := b.config.Gravity + b.jitter()
	return fmt.Appendf(nil, "%d\t%d\t%d\t%d\n", t, x, y, z)
}

func (b *Board) jitter() int {
	return b.faker.IntBetween(-b.config.Noise, b.config.Noise)
}

// Acks returns every byte written back to the board so far.
func (b *Board) Acks() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.acks...)
}

// Sent returns the number of samples emitted.
func (b *Board) Sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

// Run writes samples to conn until ctx is done or a write fails, while
// collecting acknowledgments read from conn.
func (b *Board) Run(ctx context.Context, conn io.ReadWriter) error {
	go b.collect(conn)

	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := conn.Write(b.Line()); err != nil {
				return fmt.Errorf("failed to write sample: %w", err)
			}
		}
	}
}

func (b *Board) collect(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b.mu.Lock()
			b.acks = append(b.acks, buf[:n]...)
			b.mu.Unlock()
			b.logger.Debug("acknowledgment received", "data", string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// Factory returns a stream factory backed by an in-memory pipe. Every call
// connects a fresh pipe to the board; the board stops writing when the
// stream is closed or ctx ends.
func (b *Board) Factory(ctx context.Context) stream.Factory {
	return func() (stream.Stream, error) {
		local, remote := net.Pipe()
		go func() {
			defer remote.Close()
			if err := b.Run(ctx, remote); err != nil && ctx.Err() == nil {
				b.logger.Debug("simulated board disconnected", "error", err)
			}
		}()
		return transport.NewLineStream(local), nil
	}
}

// Serve accepts connections on ln and feeds each one from its own board
// until ctx is done.
func Serve(ctx context.Context, ln net.Listener, config Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		logger.Info("client connected", "remote", conn.RemoteAddr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()

			board := NewBoard(config, logger)
			err := board.Run(ctx, conn)
			logger.Info("client disconnected",
				"remote", conn.RemoteAddr().String(),
				"samples", board.Sent(),
				"acks", len(board.Acks()),
				"error", err,
			)
		}()
	}
}
