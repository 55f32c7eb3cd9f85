package encoder

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/jittakal/sensorwindow/internal/window"
	"github.com/jittakal/sensorwindow/pkg/reading"
)

// Ensure implementation satisfies interface at compile time.
var _ Encoder = (*AvroEncoder)(nil)

// AvroEncoder implements Encoder with single Avro binary datums. Consumers
// need summarySchema to decode the payload.
type AvroEncoder struct {
	codec *goavro.Codec
}

// NewAvroEncoder creates a new Avro summary encoder.
func NewAvroEncoder() (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(summarySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}
	return &AvroEncoder{codec: codec}, nil
}

// summarySchema returns the Avro schema for window summaries.
func summarySchema() string {
	return `{
		"type": "record",
		"name": "WindowSummary",
		"namespace": "io.sensorwindow",
		"fields": [
			{"name": "source", "type": "string"},
			{"name": "count", "type": "int"},
			{"name": "capacity", "type": "int"},
			{"name": "full", "type": "boolean"},
			{"name": "t_min_ms", "type": "long"},
			{"name": "t_max_ms", "type": "long"},
			{"name": "period_ms", "type": "double"},
			{"name": "mean_magnitude", "type": "double"},
			{"name": "max_magnitude", "type": "double"},
			{"name": "smoothed_magnitude", "type": "double"},
			{"name": "observed_at", "type": {"type": "long", "logicalType": "timestamp-micros"}}
		]
	}`
}

// Schema returns the summary schema in its canonical form.
func (e *AvroEncoder) Schema() string {
	return e.codec.CanonicalSchema()
}

// Encode writes the summary as one binary datum.
func (e *AvroEncoder) Encode(s window.Summary) ([]byte, error) {
	native := map[string]interface{}{
		"source":             s.Source,
		"count":              int32(s.Count),
		"capacity":           int32(s.Capacity),
		"full":               s.Full,
		"t_min_ms":           s.TMin.Milliseconds(),
		"t_max_ms":           s.TMax.Milliseconds(),
		"period_ms":          s.PeriodMS,
		"mean_magnitude":     s.MeanMagnitude,
		"max_magnitude":      s.MaxMagnitude,
		"smoothed_magnitude": s.SmoothedMagnitude,
		"observed_at":        s.ObservedAt.UTC(),
	}

	data, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}
	return data, nil
}

// Decode reads a binary datum produced by Encode.
func (e *AvroEncoder) Decode(data []byte) (window.Summary, error) {
	native, _, err := e.codec.NativeFromBinary(data)
	if err != nil {
		return window.Summary{}, fmt.Errorf("failed to decode summary: %w", err)
	}

	m, ok := native.(map[string]interface{})
	if !ok {
		return window.Summary{}, fmt.Errorf("unexpected avro datum type %T", native)
	}

	s := window.Summary{
		Source:            m["source"].(string),
		Count:             int(m["count"].(int32)),
		Capacity:          int(m["capacity"].(int32)),
		Full:              m["full"].(bool),
		TMin:              time.Duration(m["t_min_ms"].(int64)) * time.Millisecond,
		TMax:              time.Duration(m["t_max_ms"].(int64)) * time.Millisecond,
		PeriodMS:          m["period_ms"].(float64),
		MeanMagnitude:     m["mean_magnitude"].(float64),
		MaxMagnitude:      m["max_magnitude"].(float64),
		SmoothedMagnitude: m["smoothed_magnitude"].(float64),
		ObservedAt:        m["observed_at"].(time.Time),
	}
	return s, nil
}

// Format returns FormatAvro.
func (e *AvroEncoder) Format() Format {
	return FormatAvro
}

// ContentType returns ContentTypeAvro.
func (e *AvroEncoder) ContentType() string {
	return ContentTypeAvro
}

// readingSchema returns the Avro schema for snapshot exports.
func readingSchema() string {
	return `{
		"type": "record",
		"name": "Reading",
		"namespace": "io.sensorwindow",
		"fields": [
			{"name": "t_ms", "type": ["null", "long"], "default": null},
			{"name": "x", "type": "int"},
			{"name": "y", "type": "int"},
			{"name": "z", "type": "int"},
			{"name": "magnitude", "type": "double"}
		]
	}`
}

// WriteReadingsOCF writes readings, oldest first, as an Avro Object
// Container File. Unknown board times are written as null.
func WriteReadingsOCF(w io.Writer, readings []reading.Reading, compression string) error {
	codecName, useGzip, err := ocfCompression(compression)
	if err != nil {
		return err
	}

	var gzipWriter *gzip.Writer
	if useGzip {
		gzipWriter = gzip.NewWriter(w)
		w = gzipWriter
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Schema:          readingSchema(),
		CompressionName: codecName,
	})
	if err != nil {
		return fmt.Errorf("failed to create OCF writer: %w", err)
	}

	batch := make([]interface{}, 0, len(readings))
	for _, r := range readings {
		batch = append(batch, readingToNative(r))
	}
	if len(batch) > 0 {
		if err := ocfWriter.Append(batch); err != nil {
			return fmt.Errorf("failed to write readings: %w", err)
		}
	}

	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}
	return nil
}

func readingToNative(r reading.Reading) map[string]interface{} {
	native := map[string]interface{}{
		"x":         r.Accel[0],
		"y":         r.Accel[1],
		"z":         r.Accel[2],
		"magnitude": r.Magnitude,
	}
	if r.TimeKnown {
		native["t_ms"] = goavro.Union("long", r.Time.Milliseconds())
	} else {
		native["t_ms"] = nil
	}
	return native
}

func ocfCompression(compression string) (codec string, useGzip bool, err error) {
	switch strings.ToLower(compression) {
	case "", "none", "uncompressed":
		return goavro.CompressionNullLabel, false, nil
	case "deflate":
		return goavro.CompressionDeflateLabel, false, nil
	case "snappy":
		return goavro.CompressionSnappyLabel, false, nil
	case "gzip":
		return goavro.CompressionNullLabel, true, nil
	default:
		return "", false, fmt.Errorf("unsupported avro compression: %s", compression)
	}
}

// CheckCompression reports whether WriteReadingsOCF accepts compression.
func CheckCompression(compression string) error {
	_, _, err := ocfCompression(compression)
	return err
}
