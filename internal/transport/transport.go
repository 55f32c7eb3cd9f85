// Package transport implements line streams over serial ports, TCP
// connections and in-memory pipes.
package transport

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jittakal/sensorwindow/pkg/stream"
)

// Ensure implementation satisfies interfaces at compile time.
var (
	_ stream.Stream      = (*LineStream)(nil)
	_ stream.Interrupter = (*LineStream)(nil)
)

// readBufferSize bounds the longest line accepted.
const readBufferSize = 64 * 1024

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// LineStream reads newline-terminated lines from a connection. Bytes that
// have arrived but not been read are counted from the read buffer plus,
// on Linux, the kernel receive queue of the underlying descriptor.
type LineStream struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	// resync is set when the reader stopped inside a line. The rest of that
	// line is dropped before the next one is returned.
	resync bool

	closeOnce sync.Once
	closeErr  error
}

// NewLineStream wraps a connection.
func NewLineStream(conn io.ReadWriteCloser) *LineStream {
	return &LineStream{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, readBufferSize),
	}
}

// ReadLine returns the next complete line without its line terminator.
// Fragments left over from a discard or an over-long line are skipped.
func (s *LineStream) ReadLine() ([]byte, error) {
	if s.resync {
		if err := s.skipLine(); err != nil {
			return nil, err
		}
	}
	line, err := s.reader.ReadSlice('\n')
	if err != nil {
		if len(line) > 0 {
			s.resync = true
		}
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func (s *LineStream) skipLine() error {
	for {
		_, err := s.reader.ReadSlice('\n')
		if err == nil {
			s.resync = false
			return nil
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// Pending returns the number of received bytes not yet returned by ReadLine.
func (s *LineStream) Pending() (int, error) {
	queued, err := kernelPending(s.conn)
	if err != nil {
		return s.reader.Buffered(), err
	}
	return s.reader.Buffered() + queued, nil
}

// DiscardPending drops the read buffer and everything queued behind it. When
// the last dropped byte is not a newline, the next ReadLine resumes after the
// following one.
func (s *LineStream) DiscardPending() (int, error) {
	pending, err := s.Pending()
	if err != nil {
		pending = s.reader.Buffered()
	}
	if pending == 0 {
		return 0, nil
	}

	n, err := s.reader.Discard(pending - 1)
	if err != nil {
		if n > 0 {
			s.resync = true
		}
		return n, err
	}
	last, err := s.reader.ReadByte()
	if err != nil {
		if n > 0 {
			s.resync = true
		}
		return n, err
	}
	s.resync = last != '\n'
	return n + 1, nil
}

// Write sends raw bytes.
func (s *LineStream) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// Interrupt makes a blocked ReadLine return. Connections without read
// deadlines are closed instead.
func (s *LineStream) Interrupt() error {
	if d, ok := s.conn.(readDeadliner); ok {
		if err := d.SetReadDeadline(time.Now()); err == nil {
			return nil
		}
	}
	return s.Close()
}

// Close closes the connection. Subsequent calls return the first result.
func (s *LineStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
