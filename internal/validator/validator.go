// Package validator checks window summaries before they leave the process.
package validator

import (
	"fmt"
	"math"

	"github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/internal/window"
)

// SummaryValidator rejects summaries that are inconsistent or cannot be
// encoded.
type SummaryValidator struct{}

// NewSummaryValidator creates a new summary validator.
func NewSummaryValidator() *SummaryValidator {
	return &SummaryValidator{}
}

// Validate validates a summary.
func (v *SummaryValidator) Validate(s window.Summary) error {
	if s.Source == "" {
		return &errors.ValidationError{
			Source: s.Source,
			Field:  "source",
			Reason: "required field is missing",
		}
	}

	if s.Capacity <= 0 {
		return &errors.ValidationError{
			Source: s.Source,
			Field:  "capacity",
			Reason: fmt.Sprintf("must be positive, got %d", s.Capacity),
		}
	}

	if s.Count < 0 || s.Count > s.Capacity {
		return &errors.ValidationError{
			Source: s.Source,
			Field:  "count",
			Reason: fmt.Sprintf("%d is outside [0, %d]", s.Count, s.Capacity),
		}
	}

	if s.TMax < s.TMin {
		return &errors.ValidationError{
			Source: s.Source,
			Field:  "t_max_ns",
			Reason: fmt.Sprintf("%v precedes t_min %v", s.TMax, s.TMin),
		}
	}

	if s.ObservedAt.IsZero() {
		return &errors.ValidationError{
			Source: s.Source,
			Field:  "observed_at",
			Reason: "required field is missing",
		}
	}

	// JSON cannot represent NaN or infinities
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"period_ms", s.PeriodMS},
		{"mean_magnitude", s.MeanMagnitude},
		{"max_magnitude", s.MaxMagnitude},
		{"smoothed_magnitude", s.SmoothedMagnitude},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &errors.ValidationError{
				Source: s.Source,
				Field:  f.name,
				Reason: fmt.Sprintf("not a finite number: %v", f.value),
			}
		}
	}

	return nil
}
