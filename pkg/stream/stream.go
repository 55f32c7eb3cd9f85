// Package stream defines the byte-stream contract consumed by acquisition sessions.
//
// A stream is a line-oriented, bidirectional connection to a board: readings
// arrive one line at a time and an acknowledgment token is written back.
package stream

// Stream is an open connection to a data source.
// A stream is owned by exactly one acquisition goroutine.
type Stream interface {
	// ReadLine blocks until one full line is available and returns it
	// without the trailing newline. The returned slice is only valid until
	// the next call.
	ReadLine() ([]byte, error)

	// Pending returns the number of received bytes not yet consumed by ReadLine.
	Pending() (int, error)

	// DiscardPending drops every received byte not yet consumed and
	// returns how many were dropped. If the drop ends inside a line, the
	// next ReadLine starts after that line's terminator.
	DiscardPending() (int, error)

	// Write sends raw bytes to the source.
	Write(p []byte) (int, error)

	// Close releases the connection.
	Close() error
}

// Interrupter is implemented by streams that can unblock a pending ReadLine
// without being closed. An interrupted ReadLine returns an error.
type Interrupter interface {
	Interrupt() error
}

// Factory opens a new stream.
type Factory func() (Stream, error)
