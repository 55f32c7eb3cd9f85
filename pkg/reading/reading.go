package reading

import (
	"encoding/json"
	"math"
	"time"
)

// Axes is the number of acceleration channels reported per sample.
const Axes = 3

// Reading is one accelerometer sample.
type Reading struct {
	// Time is the board clock since boot. Only meaningful when TimeKnown is true.
	Time time.Duration
	// TimeKnown is false when the board reported -1 for the timestamp.
	TimeKnown bool
	// Accel holds the x, y and z acceleration in milli-g.
	Accel [Axes]int32
	// Magnitude is the Euclidean norm of Accel.
	Magnitude float64
}

// New creates a reading and derives its magnitude.
func New(t time.Duration, known bool, accel [Axes]int32) Reading {
	return Reading{
		Time:      t,
		TimeKnown: known,
		Accel:     accel,
		Magnitude: Norm(accel),
	}
}

// Norm returns the Euclidean norm of an acceleration vector.
func Norm(accel [Axes]int32) float64 {
	var sum float64
	for _, a := range accel {
		f := float64(a)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Seconds returns the board clock in seconds, or NaN if the time is unknown.
func (r Reading) Seconds() float64 {
	if !r.TimeKnown {
		return math.NaN()
	}
	return r.Time.Seconds()
}

type readingJSON struct {
	TimeMS    int64       `json:"t_ms"`
	TimeKnown bool        `json:"t_known"`
	Accel     [Axes]int32 `json:"accel"`
	Magnitude float64     `json:"magnitude"`
}

// MarshalJSON encodes the board clock in milliseconds.
func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(readingJSON{
		TimeMS:    r.Time.Milliseconds(),
		TimeKnown: r.TimeKnown,
		Accel:     r.Accel,
		Magnitude: r.Magnitude,
	})
}

// UnmarshalJSON decodes a reading encoded by MarshalJSON.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var v readingJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r.Time = time.Duration(v.TimeMS) * time.Millisecond
	r.TimeKnown = v.TimeKnown
	r.Accel = v.Accel
	r.Magnitude = v.Magnitude
	return nil
}
