//go:build !linux

package transport

import "github.com/jittakal/sensorwindow/internal/errors"

// DefaultBaud matches the micro:bit firmware.
const DefaultBaud = 115200

// OpenSerial is only implemented on Linux.
func OpenSerial(device string, baud int) (*LineStream, error) {
	return nil, errors.ErrUnsupportedPlatform
}
