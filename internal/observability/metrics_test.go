package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jittakal/sensorwindow/internal/acquisition"
	"github.com/jittakal/sensorwindow/internal/kafka"
	"github.com/jittakal/sensorwindow/internal/monitor"
)

// Ensure Metrics satisfies the collectors of its consumers.
var (
	_ acquisition.MetricsCollector = (*Metrics)(nil)
	_ kafka.MetricsCollector       = (*Metrics)(nil)
	_ monitor.MetricsCollector     = (*Metrics)(nil)
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	if metrics := NewMetrics(registry); metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)

	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(registry)
}

func TestMetrics_Acquisition(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.IncRecordsAppended("1")
	metrics.IncRecordsAppended("1")
	metrics.IncRecordsAppended("2")
	metrics.IncRecordsDropped("1", "parse")
	metrics.IncNotifications("1")
	metrics.AddBytesDiscarded("1", 4500)
	metrics.SetPendingBytes("1", 250)
	metrics.SetWindowFill("1", 2)

	tests := []struct {
		name      string
		collector prometheus.Collector
		want      float64
	}{
		{"appended source 1", metrics.RecordsAppended.WithLabelValues("1"), 2},
		{"appended source 2", metrics.RecordsAppended.WithLabelValues("2"), 1},
		{"dropped", metrics.RecordsDropped.WithLabelValues("1", "parse"), 1},
		{"notifications", metrics.Notifications.WithLabelValues("1"), 1},
		{"discarded", metrics.BytesDiscarded.WithLabelValues("1"), 4500},
		{"pending", metrics.PendingBytes.WithLabelValues("1"), 250},
		{"fill", metrics.WindowFill.WithLabelValues("1"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.collector); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetrics_MonitorAndPublisher(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.SetWindowPeriod("1", 2.5)
	metrics.IncEventsPublished("summaries", "success")
	metrics.ObservePublishDuration("summaries", 0.004)

	if got := testutil.ToFloat64(metrics.WindowPeriod.WithLabelValues("1")); got != 2.5 {
		t.Errorf("window period = %v, want 2.5", got)
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("summaries", "success")); got != 1 {
		t.Errorf("events published = %v, want 1", got)
	}

	expected := `
# HELP sensorwindow_window_period_ms Window time span divided by its capacity, in milliseconds
# TYPE sensorwindow_window_period_ms gauge
sensorwindow_window_period_ms{source="1"} 2.5
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "sensorwindow_window_period_ms"); err != nil {
		t.Error(err)
	}
	if n := testutil.CollectAndCount(metrics.PublishDuration); n != 1 {
		t.Errorf("publish duration series = %d, want 1", n)
	}
}
