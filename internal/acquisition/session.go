// Package acquisition runs the background loop that fills a window of readings
// from a line-oriented stream.
package acquisition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/internal/ring"
	"github.com/jittakal/sensorwindow/pkg/stream"
)

// Defaults applied to zero Config fields.
const (
	DefaultNotifyEvery      = 20
	DefaultLowWatermark     = 200
	DefaultHighWatermark    = 4000
	DefaultReadErrorBackoff = 100 * time.Millisecond
)

// ParseFunc decodes one line into a record.
type ParseFunc[T any] func(line []byte) (T, error)

// MetricsCollector defines metrics operations for an acquisition session.
type MetricsCollector interface {
	IncRecordsAppended(source string)
	IncRecordsDropped(source string, reason string)
	IncNotifications(source string)
	AddBytesDiscarded(source string, n int)
	SetPendingBytes(source string, n int)
	SetWindowFill(source string, n int)
}

// Config contains acquisition session configuration.
type Config struct {
	// Name identifies the session in logs and is written verbatim to the
	// stream as the acknowledgment token. Must be non-empty ASCII.
	Name             string
	Capacity         int
	NotifyEvery      int
	LowWatermark     int
	HighWatermark    int
	ReadErrorBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.NotifyEvery <= 0 {
		c.NotifyEvery = DefaultNotifyEvery
	}
	if c.LowWatermark <= 0 {
		c.LowWatermark = DefaultLowWatermark
	}
	if c.HighWatermark <= 0 {
		c.HighWatermark = DefaultHighWatermark
	}
	if c.ReadErrorBackoff <= 0 {
		c.ReadErrorBackoff = DefaultReadErrorBackoff
	}
	return c
}

// Stats is a point-in-time view of session counters.
type Stats struct {
	Source         string
	Appended       uint64
	ParseFailures  uint64
	ReadFailures   uint64
	Notifications  uint64
	BytesDiscarded uint64
	Len            int
	Capacity       int
	Full           bool
	Running        bool
	// Waiters is the number of consumers blocked in WaitSnapshot.
	Waiters int
}

// Session owns one background goroutine that reads, parses and appends
// records to its window, and wakes consumers every NotifyEvery appends.
//
// A session is created stopped, started once with Start and torn down once
// with Stop. It cannot be restarted.
type Session[T any] struct {
	cfg     Config
	token   []byte
	open    stream.Factory
	parse   ParseFunc[T]
	logger  *slog.Logger
	metrics MetricsCollector

	// bufMu serializes the producer's Append with consumer copies.
	bufMu  sync.RWMutex
	buffer *ring.Buffer[T]

	// mu guards the notify/wait handshake.
	mu         sync.Mutex
	cond       *sync.Cond
	generation uint64
	waiters    int
	stopped    bool

	// lifeMu serializes Start and Stop.
	lifeMu   sync.Mutex
	started  bool
	running  atomic.Bool
	stopCh   chan struct{}
	done     chan struct{}
	conn     *guardedStream
	closeErr error

	appended       atomic.Uint64
	parseFailures  atomic.Uint64
	readFailures   atomic.Uint64
	notifications  atomic.Uint64
	bytesDiscarded atomic.Uint64
}

// New creates a stopped session.
func New[T any](
	cfg Config,
	open stream.Factory,
	parse ParseFunc[T],
	logger *slog.Logger,
	metrics MetricsCollector,
) (*Session[T], error) {
	if !isASCII(cfg.Name) {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidName, cfg.Name)
	}
	if open == nil || parse == nil {
		return nil, fmt.Errorf("session %s: stream factory and parse function are required", cfg.Name)
	}
	if d := cfg.withDefaults(); d.HighWatermark < d.LowWatermark {
		return nil, fmt.Errorf("session %s: %w: high %d is below low %d",
			cfg.Name, errors.ErrInvalidWatermarks, d.HighWatermark, d.LowWatermark)
	}

	buf, err := ring.New[T](cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", cfg.Name, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	s := &Session[T]{
		cfg:     cfg.withDefaults(),
		token:   []byte(cfg.Name),
		open:    open,
		parse:   parse,
		logger:  logger,
		metrics: metrics,
		buffer:  buf,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Name returns the session identifier.
func (s *Session[T]) Name() string {
	return s.cfg.Name
}

// Capacity returns the window capacity.
func (s *Session[T]) Capacity() int {
	return s.buffer.Cap()
}

// Running reports whether the background loop is active.
func (s *Session[T]) Running() bool {
	return s.running.Load()
}

// Start opens the stream and launches the background loop. It returns once
// the stream is open; it does not wait for data. A failure to open the
// stream is returned and leaves the session stopped.
func (s *Session[T]) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.started {
		if s.isStopped() {
			return errors.ErrSessionStopped
		}
		return errors.ErrSessionStarted
	}
	if s.isStopped() {
		return errors.ErrSessionStopped
	}
	s.started = true

	ready := make(chan error, 1)
	s.running.Store(true)
	go s.background(ready)

	if err := <-ready; err != nil {
		s.running.Store(false)
		<-s.done
		s.markStopped()
		s.logger.Error("failed to open stream", "source", s.cfg.Name, "error", err)
		return err
	}

	s.logger.Info("acquisition started",
		"source", s.cfg.Name,
		"capacity", s.buffer.Cap(),
		"notify_every", s.cfg.NotifyEvery,
	)
	return nil
}

// Stop requests termination, unblocks a pending read and waits until the
// background loop has exited and released the stream. It returns the error
// from closing the stream, if any.
func (s *Session[T]) Stop() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.isStopped() {
		return errors.ErrSessionStopped
	}
	if !s.started {
		s.markStopped()
		return nil
	}

	s.running.Store(false)
	close(s.stopCh)
	if err := s.conn.Interrupt(); err != nil {
		s.logger.Debug("failed to interrupt read", "source", s.cfg.Name, "error", err)
	}

	<-s.done
	released := s.markStopped()

	s.logger.Info("acquisition stopped",
		"source", s.cfg.Name,
		"appended", s.appended.Load(),
		"parse_failures", s.parseFailures.Load(),
		"released_waiters", released,
	)
	return s.closeErr
}

// Snapshot returns a copy of the window, oldest first. With waitForNext it
// first blocks until the next notification, or returns the current contents
// immediately once the session is stopped.
func (s *Session[T]) Snapshot(waitForNext bool) []T {
	if !waitForNext {
		return s.snapshot()
	}
	records, _ := s.WaitSnapshot(context.Background())
	return records
}

// WaitSnapshot blocks until the next notification and returns a copy of the
// window. It returns ctx.Err() if the context ends first, and the current
// contents with ErrSessionStopped once the session has stopped.
func (s *Session[T]) WaitSnapshot(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return s.snapshot(), errors.ErrSessionStopped
	}

	release := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer release()

	seen := s.generation
	s.waiters++
	for s.generation == seen && !s.stopped && ctx.Err() == nil {
		s.cond.Wait()
	}
	s.waiters--
	advanced := s.generation != seen
	stopped := s.stopped
	s.mu.Unlock()

	if advanced {
		return s.snapshot(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stopped {
		return s.snapshot(), errors.ErrSessionStopped
	}
	return s.snapshot(), nil
}

// Stats returns the current session counters.
func (s *Session[T]) Stats() Stats {
	s.bufMu.RLock()
	n, full := s.buffer.Len(), s.buffer.IsFull()
	s.bufMu.RUnlock()

	s.mu.Lock()
	waiters := s.waiters
	s.mu.Unlock()

	return Stats{
		Source:         s.cfg.Name,
		Appended:       s.appended.Load(),
		ParseFailures:  s.parseFailures.Load(),
		ReadFailures:   s.readFailures.Load(),
		Notifications:  s.notifications.Load(),
		BytesDiscarded: s.bytesDiscarded.Load(),
		Len:            n,
		Capacity:       s.buffer.Cap(),
		Full:           full,
		Running:        s.running.Load(),
		Waiters:        waiters,
	}
}

func (s *Session[T]) snapshot() []T {
	s.bufMu.RLock()
	defer s.bufMu.RUnlock()
	return s.buffer.Snapshot()
}

func (s *Session[T]) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// markStopped releases every waiter and returns how many were blocked.
func (s *Session[T]) markStopped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cond.Broadcast()
	return s.waiters
}

func isASCII(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] >= 0x80 {
			return false
		}
	}
	return true
}

type nopMetrics struct{}

func (nopMetrics) IncRecordsAppended(string)        {}
func (nopMetrics) IncRecordsDropped(string, string) {}
func (nopMetrics) IncNotifications(string)          {}
func (nopMetrics) AddBytesDiscarded(string, int)    {}
func (nopMetrics) SetPendingBytes(string, int)      {}
func (nopMetrics) SetWindowFill(string, int)        {}
