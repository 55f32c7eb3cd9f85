// Package window defines the fixed-size window of recent readings.
//
// A window keeps the newest N values it has been given and exposes them
// oldest first. Implementations are not required to be safe for concurrent
// use; the acquisition session serializes access.
package window

// Window is a fixed-capacity container with newest-N semantics.
type Window[T any] interface {
	// Append stores a value, evicting the oldest one once the window is full.
	Append(value T)

	// Len returns the number of values currently retained.
	Len() int

	// Cap returns the fixed capacity.
	Cap() int

	// IsFull reports whether the window has wrapped at least once.
	IsFull() bool

	// Snapshot returns a newly allocated copy of the retained values,
	// oldest first.
	Snapshot() []T
}
