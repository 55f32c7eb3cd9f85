// Package ring provides the circular buffer behind each acquisition window.
//
// # Buffer
//
// Buffer keeps the newest N values appended to it:
//
//	buf, err := ring.New[reading.Reading](500)
//	if err != nil {
//	    // capacity was not positive
//	}
//
//	buf.Append(r)
//	window := buf.Snapshot() // oldest first, independent copy
//
// # Eviction
//
// Once N values have been appended the buffer is full and stays full; every
// further Append overwrites the oldest retained value. Len is the number of
// appends so far, capped at N.
//
// # Snapshots
//
// Snapshot allocates a new slice on every call. While the buffer is not full it
// holds slots [0, i); once full it is slots [i, N) followed by [0, i), so the
// result is in insertion order no matter where the write cursor sits.
//
// # Thread Safety
//
// Buffer has no internal locking. The acquisition session wraps it with its own
// RWMutex so that Append from the producer goroutine and Snapshot from
// consumers never interleave.
package ring
