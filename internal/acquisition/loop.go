package acquisition

import (
	"fmt"
	"sync"
	"time"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/pkg/stream"
)

// background owns the stream for the whole running lifetime of the session.
func (s *Session[T]) background(ready chan<- error) {
	defer close(s.done)

	conn, err := s.open()
	if err != nil {
		ready <- &errors.StreamError{Source: s.cfg.Name, Operation: "open", Err: err}
		return
	}

	s.conn = &guardedStream{Stream: conn}
	defer func() {
		s.closeErr = s.conn.Close()
		s.running.Store(false)
	}()
	ready <- nil

	s.loop(s.conn)
}

func (s *Session[T]) loop(conn stream.Stream) {
	var count uint64

	for s.running.Load() {
		line, err := conn.ReadLine()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.readFailures.Add(1)
			s.metrics.IncRecordsDropped(s.cfg.Name, "read")
			s.logger.Warn("read failed",
				"source", s.cfg.Name,
				"error", &errors.StreamError{Source: s.cfg.Name, Operation: "read", Err: err},
			)
			if !s.pause() {
				return
			}
			continue
		}

		record, err := s.safeParse(line)
		if err != nil {
			s.parseFailures.Add(1)
			s.metrics.IncRecordsDropped(s.cfg.Name, "parse")
			s.logger.Warn("dropping malformed record",
				"source", s.cfg.Name,
				"error", err,
			)
			continue
		}

		s.bufMu.Lock()
		s.buffer.Append(record)
		n := s.buffer.Len()
		s.bufMu.Unlock()

		s.appended.Add(1)
		s.metrics.IncRecordsAppended(s.cfg.Name)
		s.metrics.SetWindowFill(s.cfg.Name, n)

		s.shedBacklog(conn)

		count++
		if count%uint64(s.cfg.NotifyEvery) == 0 {
			s.acknowledge(conn)
			s.notify()
		}
	}
}

// safeParse treats a panicking parser like any other malformed record.
func (s *Session[T]) safeParse(line []byte) (record T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: parser panic: %v", errors.ErrMalformedRecord, r)
		}
	}()
	return s.parse(line)
}

// shedBacklog warns above the low watermark and throws away every pending
// byte above the high watermark.
func (s *Session[T]) shedBacklog(conn stream.Stream) {
	pending, err := conn.Pending()
	if err != nil {
		s.logger.Debug("failed to query pending input", "source", s.cfg.Name, "error", err)
		return
	}
	s.metrics.SetPendingBytes(s.cfg.Name, pending)

	if pending <= s.cfg.LowWatermark {
		return
	}
	s.logger.Warn("lots of buffering",
		"source", s.cfg.Name,
		"pending_bytes", pending,
	)

	if pending <= s.cfg.HighWatermark {
		return
	}
	discarded, err := conn.DiscardPending()
	if err != nil {
		s.logger.Error("failed to discard pending input", "source", s.cfg.Name, "error", err)
	}
	if discarded > 0 {
		s.bytesDiscarded.Add(uint64(discarded))
		s.metrics.AddBytesDiscarded(s.cfg.Name, discarded)
	}
	s.metrics.SetPendingBytes(s.cfg.Name, 0)
	s.logger.Error("threw out data",
		"source", s.cfg.Name,
		"discarded_bytes", discarded,
	)
}

func (s *Session[T]) acknowledge(conn stream.Stream) {
	if _, err := conn.Write(s.token); err != nil {
		s.logger.Warn("failed to write acknowledgment",
			"source", s.cfg.Name,
			"error", &errors.StreamError{Source: s.cfg.Name, Operation: "write", Err: err},
		)
	}
}

func (s *Session[T]) notify() {
	s.mu.Lock()
	s.generation++
	s.cond.Broadcast()
	s.mu.Unlock()

	s.notifications.Add(1)
	s.metrics.IncNotifications(s.cfg.Name)
}

// pause waits out the read error backoff. It returns false if Stop was
// requested meanwhile.
func (s *Session[T]) pause() bool {
	timer := time.NewTimer(s.cfg.ReadErrorBackoff)
	defer timer.Stop()

	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// guardedStream closes the underlying stream at most once, so Stop and the
// producer can both release it.
type guardedStream struct {
	stream.Stream
	once     sync.Once
	closeErr error
}

func (g *guardedStream) Close() error {
	g.once.Do(func() {
		g.closeErr = g.Stream.Close()
	})
	return g.closeErr
}

// Interrupt unblocks a pending read. Streams without read interruption are
// closed instead.
func (g *guardedStream) Interrupt() error {
	if it, ok := g.Stream.(stream.Interrupter); ok {
		return it.Interrupt()
	}
	return g.Close()
}
