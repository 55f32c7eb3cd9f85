package encoder

import "github.com/jittakal/sensorwindow/internal/window"

// Format identifies a summary encoding.
type Format string

// Supported summary formats.
const (
	FormatJSON Format = "json"
	FormatAvro Format = "avro"
)

// Content types of the encoded payloads.
const (
	ContentTypeJSON = "application/json"
	ContentTypeAvro = "application/avro"
)

// Encoder converts a summary to and from a wire payload.
type Encoder interface {
	// Encode serializes one summary.
	Encode(s window.Summary) ([]byte, error)

	// Decode parses a payload produced by Encode.
	Decode(data []byte) (window.Summary, error)

	// Format returns the format this encoder produces.
	Format() Format

	// ContentType returns the MIME type of encoded payloads.
	ContentType() string
}
