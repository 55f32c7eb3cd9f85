// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for common conditions.
var (
	ErrInvalidCapacity     = errors.New("capacity must be positive")
	ErrInvalidName         = errors.New("session name must be non-empty ASCII")
	ErrInvalidWatermarks   = errors.New("high watermark must not be below low watermark")
	ErrSessionStarted      = errors.New("session already started")
	ErrSessionStopped      = errors.New("session is stopped")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrUnsupportedPlatform = errors.New("serial ports are not supported on this platform")
	ErrPublisherClosed     = errors.New("publisher is closed")
	ErrUnknownSource       = errors.New("unknown source")
)

// ParseError represents a line that could not be decoded into a record.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: line=%q: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse error: line=%q: %s", e.Line, e.Reason)
}

// Unwrap returns ErrMalformedRecord so callers can match any parse failure,
// together with the underlying cause if there is one.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedRecord, e.Err}
	}
	return []error{ErrMalformedRecord}
}

// ValidationError represents a summary that must not be published.
type ValidationError struct {
	Source string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: source=%s field=%s: %s",
		e.Source, e.Field, e.Reason)
}

// IsRetryable reports false: the same summary fails the same way again.
func (e *ValidationError) IsRetryable() bool {
	return false
}

// StreamError represents a failure on a source stream.
type StreamError struct {
	Source    string
	Operation string
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: source=%s operation=%s: %v",
		e.Source, e.Operation, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if a StreamError is retryable. Failing to open a
// stream is fatal; read timeouts are not.
func (e *StreamError) IsRetryable() bool {
	if e.Operation == "open" {
		return false
	}
	return errors.Is(e.Err, os.ErrDeadlineExceeded)
}

// PublishError represents a failure to forward a summary to Kafka.
type PublishError struct {
	Topic  string
	Source string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish error: topic=%s source=%s: %v",
		e.Topic, e.Source, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether publishing can be attempted again.
func (e *PublishError) IsRetryable() bool {
	var invalid *ValidationError
	if errors.As(e.Err, &invalid) {
		return false
	}
	return !errors.Is(e.Err, ErrPublisherClosed)
}

// Retryable defines an interface for errors that can indicate if they are retryable.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable checks if an error is retryable.
// It first checks if the error implements the Retryable interface,
// then falls back to checking sentinel errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return errors.Is(err, os.ErrDeadlineExceeded)
}
