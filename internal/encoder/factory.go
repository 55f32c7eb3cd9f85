package encoder

import "fmt"

// Factory creates encoders based on format.
type Factory struct {
	format Format
}

// NewFactory creates a new encoder factory.
func NewFactory(format Format) *Factory {
	return &Factory{format: format}
}

// CreateEncoder creates an encoder based on the configured format.
func (f *Factory) CreateEncoder() (Encoder, error) {
	switch f.format {
	case FormatJSON, "":
		return NewJSONEncoder(), nil
	case FormatAvro:
		return NewAvroEncoder()
	default:
		return nil, fmt.Errorf("unsupported summary format: %s", f.format)
	}
}

// SupportedFormats returns a list of supported summary formats.
func SupportedFormats() []Format {
	return []Format{
		FormatJSON,
		FormatAvro,
	}
}

// SupportedCompressions returns the codecs accepted by WriteReadingsOCF.
func SupportedCompressions() []string {
	return []string{"none", "deflate", "snappy", "gzip"}
}
