// Package parser decodes accelerometer lines written by the board firmware.
package parser

import (
	"bytes"
	"strconv"
	"time"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/pkg/reading"
)

// Fields per line: time followed by one value per axis.
const Fields = 1 + reading.Axes

// UnknownTime is the timestamp the firmware sends when its clock is unset.
const UnknownTime = -1

// ParseAccel decodes a line of the form "time x y z", with fields separated
// by any run of whitespace. Time is in milliseconds since boot.
func ParseAccel(line []byte) (reading.Reading, error) {
	fields := bytes.Fields(line)
	if len(fields) != Fields {
		return reading.Reading{}, &errors.ParseError{
			Line:   string(line),
			Reason: "expected " + strconv.Itoa(Fields) + " fields, got " + strconv.Itoa(len(fields)),
		}
	}

	ms, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return reading.Reading{}, &errors.ParseError{Line: string(line), Reason: "invalid time", Err: err}
	}

	var accel [reading.Axes]int32
	for i := range accel {
		v, err := strconv.ParseInt(string(fields[i+1]), 10, 32)
		if err != nil {
			return reading.Reading{}, &errors.ParseError{
				Line:   string(line),
				Reason: "invalid axis " + strconv.Itoa(i),
				Err:    err,
			}
		}
		accel[i] = int32(v)
	}

	if ms == UnknownTime {
		return reading.New(0, false, accel), nil
	}
	return reading.New(time.Duration(ms)*time.Millisecond, true, accel), nil
}
