// Package window derives statistics from a snapshot of readings.
package window

import (
	"time"

	"github.com/jittakal/sensorwindow/pkg/reading"
)

// Summary describes one snapshot of a source's window.
type Summary struct {
	Source   string `json:"source"`
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
	Full     bool   `json:"full"`

	// TMin and TMax span the readings whose board time is known.
	TMin time.Duration `json:"t_min_ns"`
	TMax time.Duration `json:"t_max_ns"`
	// PeriodMS is the span divided by the window capacity, in milliseconds.
	PeriodMS float64 `json:"period_ms"`

	MeanMagnitude     float64 `json:"mean_magnitude"`
	MaxMagnitude      float64 `json:"max_magnitude"`
	SmoothedMagnitude float64 `json:"smoothed_magnitude"`

	ObservedAt time.Time `json:"observed_at"`
}

// Summarize computes a summary over readings ordered oldest first.
func Summarize(source string, readings []reading.Reading, capacity int, observedAt time.Time) Summary {
	s := Summary{
		Source:     source,
		Count:      len(readings),
		Capacity:   capacity,
		Full:       capacity > 0 && len(readings) >= capacity,
		ObservedAt: observedAt,
	}
	if len(readings) == 0 {
		return s
	}

	var (
		sum      float64
		haveTime bool
	)
	for _, r := range readings {
		sum += r.Magnitude
		if r.Magnitude > s.MaxMagnitude {
			s.MaxMagnitude = r.Magnitude
		}

		if !r.TimeKnown {
			continue
		}
		if !haveTime || r.Time < s.TMin {
			s.TMin = r.Time
		}
		if !haveTime || r.Time > s.TMax {
			s.TMax = r.Time
		}
		haveTime = true
	}

	s.MeanMagnitude = sum / float64(len(readings))
	s.SmoothedMagnitude = SmoothLast(Magnitudes(readings))
	if haveTime && capacity > 0 {
		s.PeriodMS = 1000 * (s.TMax - s.TMin).Seconds() / float64(capacity)
	}
	return s
}

// Magnitudes returns the magnitude of each reading, in order.
func Magnitudes(readings []reading.Reading) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Magnitude
	}
	return out
}
