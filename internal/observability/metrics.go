package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "sensorwindow"

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Acquisition metrics
	RecordsAppended *prometheus.CounterVec
	RecordsDropped  *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	BytesDiscarded  *prometheus.CounterVec
	PendingBytes    *prometheus.GaugeVec
	WindowFill      *prometheus.GaugeVec

	// Monitor metrics
	WindowPeriod *prometheus.GaugeVec

	// Publisher metrics
	EventsPublished *prometheus.CounterVec
	PublishDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		RecordsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_appended_total",
				Help:      "Total number of records appended to the window",
			},
			[]string{"source"},
		),
		RecordsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_dropped_total",
				Help:      "Total number of lines dropped because they could not be read or parsed",
			},
			[]string{"source", "reason"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "notifications_total",
				Help:      "Total number of consumer notifications",
			},
			[]string{"source"},
		),
		BytesDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "bytes_discarded_total",
				Help:      "Total number of pending input bytes thrown away on overflow",
			},
			[]string{"source"},
		),
		PendingBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "pending_bytes",
				Help:      "Input bytes received but not yet read",
			},
			[]string{"source"},
		),
		WindowFill: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "window_fill",
				Help:      "Number of records currently held in the window",
			},
			[]string{"source"},
		),
		WindowPeriod: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "window_period_ms",
				Help:      "Window time span divided by its capacity, in milliseconds",
			},
			[]string{"source"},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_published_total",
				Help:      "Total number of summary events published to Kafka",
			},
			[]string{"topic", "status"},
		),
		PublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "publish_duration_seconds",
				Help:      "Latency of synchronous summary publishes",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"topic"},
		),
	}
}

// IncRecordsAppended increments the appended records counter.
func (m *Metrics) IncRecordsAppended(source string) {
	m.RecordsAppended.WithLabelValues(source).Inc()
}

// IncRecordsDropped increments the dropped records counter.
func (m *Metrics) IncRecordsDropped(source string, reason string) {
	m.RecordsDropped.WithLabelValues(source, reason).Inc()
}

// IncNotifications increments the notifications counter.
func (m *Metrics) IncNotifications(source string) {
	m.Notifications.WithLabelValues(source).Inc()
}

// AddBytesDiscarded adds to the discarded bytes counter.
func (m *Metrics) AddBytesDiscarded(source string, n int) {
	m.BytesDiscarded.WithLabelValues(source).Add(float64(n))
}

// SetPendingBytes sets the pending bytes gauge.
func (m *Metrics) SetPendingBytes(source string, n int) {
	m.PendingBytes.WithLabelValues(source).Set(float64(n))
}

// SetWindowFill sets the window fill gauge.
func (m *Metrics) SetWindowFill(source string, n int) {
	m.WindowFill.WithLabelValues(source).Set(float64(n))
}

// SetWindowPeriod sets the window period gauge.
func (m *Metrics) SetWindowPeriod(source string, ms float64) {
	m.WindowPeriod.WithLabelValues(source).Set(ms)
}

// IncEventsPublished increments the published events counter.
func (m *Metrics) IncEventsPublished(topic string, status string) {
	m.EventsPublished.WithLabelValues(topic, status).Inc()
}

// ObservePublishDuration observes publish latency.
func (m *Metrics) ObservePublishDuration(topic string, duration float64) {
	m.PublishDuration.WithLabelValues(topic).Observe(duration)
}
