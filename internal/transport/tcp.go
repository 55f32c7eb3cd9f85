package transport

import (
	"net"
	"time"
)

// DefaultDialTimeout bounds DialTCP when no timeout is given.
const DefaultDialTimeout = 5 * time.Second

// DialTCP connects to a board bridged over TCP, such as microbit-sim or a
// serial-to-network adapter.
func DialTCP(address string, timeout time.Duration) (*LineStream, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, err
	}
	return NewLineStream(conn), nil
}
