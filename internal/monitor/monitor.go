// Package monitor is the consumer side of acquisition: it waits on every
// session's notifications, summarizes the snapshot and forwards it.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/internal/window"
	"github.com/jittakal/sensorwindow/pkg/reading"
)

// Session is the consumer view of an acquisition session.
type Session interface {
	Name() string
	Capacity() int
	WaitSnapshot(ctx context.Context) ([]reading.Reading, error)
}

// Sink receives summaries.
type Sink interface {
	Publish(ctx context.Context, s window.Summary) error
}

// MetricsCollector defines metrics operations for the monitor.
type MetricsCollector interface {
	SetWindowPeriod(source string, ms float64)
}

// Monitor keeps the latest summary per source.
type Monitor struct {
	sessions []Session
	sink     Sink
	logger   *slog.Logger
	metrics  MetricsCollector
	now      func() time.Time

	mu     sync.RWMutex
	latest map[string]window.Summary
}

// New creates a monitor. sink may be nil.
func New(sessions []Session, sink Sink, logger *slog.Logger, metrics MetricsCollector) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Monitor{
		sessions: sessions,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
		latest:   make(map[string]window.Summary, len(sessions)),
	}
}

// Run watches every session until ctx is done or all sessions have stopped.
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range m.sessions {
		wg.Add(1)
		go func(s Session) {
			defer wg.Done()
			m.watch(ctx, s)
		}(s)
	}
	wg.Wait()
}

func (m *Monitor) watch(ctx context.Context, s Session) {
	for {
		readings, err := s.WaitSnapshot(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrSessionStopped) {
				m.logger.Info("session stopped, no longer monitoring", "source", s.Name())
			}
			return
		}
		m.observe(ctx, s, readings)
	}
}

func (m *Monitor) observe(ctx context.Context, s Session, readings []reading.Reading) {
	summary := window.Summarize(s.Name(), readings, s.Capacity(), m.now())

	m.mu.Lock()
	m.latest[summary.Source] = summary
	m.mu.Unlock()

	m.metrics.SetWindowPeriod(summary.Source, summary.PeriodMS)
	m.logger.Debug("window observed",
		"source", summary.Source,
		"count", summary.Count,
		"period_ms", summary.PeriodMS,
		"smoothed_magnitude", summary.SmoothedMagnitude,
	)

	if m.sink == nil {
		return
	}
	if err := m.sink.Publish(ctx, summary); err != nil && ctx.Err() == nil {
		m.logger.Warn("failed to publish summary",
			"source", summary.Source,
			"error", err,
			"retryable", apperrors.IsRetryable(err),
		)
	}
}

// Latest returns the most recent summary observed for source.
func (m *Monitor) Latest(source string) (window.Summary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.latest[source]
	return s, ok
}

type nopMetrics struct{}

func (nopMetrics) SetWindowPeriod(string, float64) {}
