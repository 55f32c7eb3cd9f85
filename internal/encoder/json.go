package encoder

import (
	"encoding/json"
	"fmt"

	"github.com/jittakal/sensorwindow/internal/window"
)

// Ensure implementation satisfies interface at compile time.
var _ Encoder = (*JSONEncoder)(nil)

// JSONEncoder implements Encoder with encoding/json.
type JSONEncoder struct{}

// NewJSONEncoder creates a new JSON encoder.
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

// Encode marshals the summary.
func (e *JSONEncoder) Encode(s window.Summary) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return data, nil
}

// Decode unmarshals a summary.
func (e *JSONEncoder) Decode(data []byte) (window.Summary, error) {
	var s window.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return window.Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return s, nil
}

// Format returns FormatJSON.
func (e *JSONEncoder) Format() Format {
	return FormatJSON
}

// ContentType returns ContentTypeJSON.
func (e *JSONEncoder) ContentType() string {
	return ContentTypeJSON
}
