package parser

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/jittakal/sensorwindow/internal/errors"
)

func TestParseAccel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantTime  time.Duration
		wantKnown bool
		wantAccel [3]int32
	}{
		{
			name:      "tab separated",
			line:      "1500\t0\t0\t1024",
			wantTime:  1500 * time.Millisecond,
			wantKnown: true,
			wantAccel: [3]int32{0, 0, 1024},
		},
		{
			name:      "negative axes with spaces",
			line:      "  20   -12 40\t-1010 ",
			wantTime:  20 * time.Millisecond,
			wantKnown: true,
			wantAccel: [3]int32{-12, 40, -1010},
		},
		{
			name:      "unknown time",
			line:      "-1\t3\t4\t0",
			wantKnown: false,
			wantAccel: [3]int32{3, 4, 0},
		},
		{
			name:      "zero time is known",
			line:      "0\t0\t0\t0",
			wantKnown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseAccel([]byte(tt.line))
			if err != nil {
				t.Fatalf("ParseAccel() error = %v", err)
			}
			if r.TimeKnown != tt.wantKnown {
				t.Errorf("TimeKnown = %v, want %v", r.TimeKnown, tt.wantKnown)
			}
			if tt.wantKnown && r.Time != tt.wantTime {
				t.Errorf("Time = %v, want %v", r.Time, tt.wantTime)
			}
			if r.Accel != tt.wantAccel {
				t.Errorf("Accel = %v, want %v", r.Accel, tt.wantAccel)
			}
		})
	}
}

func TestParseAccel_Magnitude(t *testing.T) {
	r, err := ParseAccel([]byte("-1\t3\t4\t0"))
	if err != nil {
		t.Fatalf("ParseAccel() error = %v", err)
	}
	if r.Magnitude != 5 {
		t.Errorf("Magnitude = %v, want 5", r.Magnitude)
	}
	if !math.IsNaN(r.Seconds()) {
		t.Errorf("Seconds() = %v, want NaN for unknown time", r.Seconds())
	}
}

func TestParseAccel_Errors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantCause bool
	}{
		{name: "empty", line: ""},
		{name: "too few fields", line: "1\t2\t3"},
		{name: "too many fields", line: "1\t2\t3\t4\t5"},
		{name: "non-integer time", line: "abc\t1\t2\t3", wantCause: true},
		{name: "float axis", line: "1\t2.5\t3\t4", wantCause: true},
		{name: "axis out of range", line: "1\t2\t99999999999\t4", wantCause: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccel([]byte(tt.line))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, apperrors.ErrMalformedRecord) {
				t.Errorf("error %v should match ErrMalformedRecord", err)
			}

			var parseErr *apperrors.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if parseErr.Line != tt.line {
				t.Errorf("Line = %q, want %q", parseErr.Line, tt.line)
			}
			if tt.wantCause && !errors.Is(err, strconv.ErrSyntax) && !errors.Is(err, strconv.ErrRange) {
				t.Errorf("error %v should wrap a strconv error", err)
			}
		})
	}
}
