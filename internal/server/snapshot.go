package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jittakal/sensorwindow/internal/encoder"
	apperrors "github.com/jittakal/sensorwindow/internal/errors"
	"github.com/jittakal/sensorwindow/internal/window"
	"github.com/jittakal/sensorwindow/pkg/reading"
)

// SnapshotResponse is the JSON form of a window snapshot.
type SnapshotResponse struct {
	Source   string            `json:"source"`
	Capacity int               `json:"capacity"`
	Running  bool              `json:"running"`
	Readings []reading.Reading `json:"readings"`
	// SmoothedMagnitude holds the smoothed magnitude at each reading.
	SmoothedMagnitude []float64 `json:"smoothed_magnitude"`
}

// SummaryProvider supplies the most recent summary computed for a source.
type SummaryProvider interface {
	Latest(source string) (window.Summary, bool)
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SnapshotHandler returns the current window of a source, oldest first. With
// ?format=avro it streams an Avro container file instead, compressed with
// ?compression=none|deflate|snappy|gzip.
func SnapshotHandler(sources *Sources, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := lookup(w, r, sources, logger)
		if !ok {
			return
		}
		readings := src.Snapshot(false)

		if r.URL.Query().Get("format") == string(encoder.FormatAvro) {
			compression := r.URL.Query().Get("compression")
			if err := encoder.CheckCompression(compression); err != nil {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()}, logger)
				return
			}
			w.Header().Set("Content-Type", encoder.ContentTypeAvro)
			if err := encoder.WriteReadingsOCF(w, readings, compression); err != nil {
				logger.Error("failed to write avro snapshot", "source", src.Name(), "error", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, SnapshotResponse{
			Source:            src.Name(),
			Capacity:          src.Capacity(),
			Running:           src.Running(),
			Readings:          readings,
			SmoothedMagnitude: window.Smooth(window.Magnitudes(readings)),
		}, logger)
	}
}

// SummaryHandler returns statistics over the window of a source. The latest
// summary from summaries is served when there is one; ?fresh=true, or a nil
// provider, computes a summary over the current window instead.
func SummaryHandler(sources *Sources, summaries SummaryProvider, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := lookup(w, r, sources, logger)
		if !ok {
			return
		}
		if summaries != nil && r.URL.Query().Get("fresh") != "true" {
			if summary, ok := summaries.Latest(src.Name()); ok {
				writeJSON(w, http.StatusOK, summary, logger)
				return
			}
		}
		summary := window.Summarize(src.Name(), src.Snapshot(false), src.Capacity(), time.Now().UTC())
		writeJSON(w, http.StatusOK, summary, logger)
	}
}

func lookup(w http.ResponseWriter, r *http.Request, sources *Sources, logger *slog.Logger) (Source, bool) {
	src, err := sources.Lookup(r.PathValue("source"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrUnknownSource) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()}, logger)
		return nil, false
	}
	return src, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
