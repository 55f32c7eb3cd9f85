// Package ring implements the fixed-capacity newest-N ring buffer.
package ring

import (
	"fmt"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/pkg/window"
)

// Ensure implementation satisfies interface at compile time.
var _ window.Window[int] = (*Buffer[int])(nil)

// Buffer is a circular buffer that overwrites its oldest element once full.
// It is not safe for concurrent use; callers serialize Append and Snapshot.
type Buffer[T any] struct {
	backing []T
	i       int // next slot to write
	full    bool
}

// New creates an empty buffer holding at most capacity elements.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", errors.ErrInvalidCapacity, capacity)
	}
	return &Buffer[T]{
		backing: make([]T, capacity),
	}, nil
}

// Append writes value at the cursor and advances it, wrapping at capacity.
func (b *Buffer[T]) Append(value T) {
	b.backing[b.i] = value
	next := b.i + 1
	if next >= len(b.backing) {
		b.full = true
		next = 0
	}
	b.i = next
}

// Len returns the number of retained elements.
func (b *Buffer[T]) Len() int {
	if b.full {
		return len(b.backing)
	}
	return b.i
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.backing)
}

// IsFull reports whether the cursor has wrapped at least once.
func (b *Buffer[T]) IsFull() bool {
	return b.full
}

// Snapshot returns the retained elements oldest first in a new slice.
// The result never aliases the backing storage.
func (b *Buffer[T]) Snapshot() []T {
	if !b.full {
		out := make([]T, b.i)
		copy(out, b.backing[:b.i])
		return out
	}

	out := make([]T, len(b.backing))
	n := copy(out, b.backing[b.i:])
	copy(out[n:], b.backing[:b.i])
	return out
}
