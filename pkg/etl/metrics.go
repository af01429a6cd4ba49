package etl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on a private registry per run so they can be
// written out as a node_exporter textfile when the run ends.
type metrics struct {
	registry *prometheus.Registry

	extractRequests *prometheus.CounterVec
	extractDuration prometheus.Histogram
	recordsScanned  prometheus.Counter
	jumps           prometheus.Counter
	warnings        prometheus.Counter
	lastSuccess     prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		extractRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solaretl_extract_requests_total",
				Help: "Total number of datum list requests made to SolarNetwork.",
			},
			[]string{"outcome"},
		),
		extractDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "solaretl_extract_duration_seconds",
			Help:    "Datum list request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		recordsScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "solaretl_records_scanned_total",
			Help: "Total number of datum records read by the jump scan.",
		}),
		jumps: f.NewCounter(prometheus.CounterOpts{
			Name: "solaretl_jumps_total",
			Help: "Total number of irradianceHours jumps reported.",
		}),
		warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "solaretl_warnings_total",
			Help: "Total number of records skipped with a warning.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "solaretl_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without error.",
		}),
	}
}

func (m *metrics) observeExtract(err error, dur time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.extractRequests.WithLabelValues(outcome).Inc()
	m.extractDuration.Observe(dur.Seconds())
}

func (m *metrics) writeTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
