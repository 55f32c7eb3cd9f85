// Package encoder serializes window summaries and snapshots.
//
// # Formats
//
// Summaries are encoded as one self-contained message, suitable for a Kafka
// record value:
//
//   - JSON: the summary's JSON form, content type "application/json"
//   - Avro: a single binary datum of the WindowSummary schema, content type
//     "application/avro"
//
// Use Factory to create encoder instances:
//
//	factory := encoder.NewFactory(encoder.FormatAvro)
//	enc, err := factory.CreateEncoder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	payload, err := enc.Encode(summary)
//
// # Snapshot Export
//
// WriteReadingsOCF writes a snapshot of readings as an Avro Object Container
// File with an embedded schema. Supported compression codecs:
//
//	"none", "deflate", "snappy", "gzip"
//
// "gzip" wraps the uncompressed container in a gzip stream; the other codecs
// compress the container blocks.
//
// # Thread Safety
//
// Encoder instances are safe for concurrent use.
package encoder
