package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of an inbound stream message.
const (
	OutcomeAggregated = "aggregated"
	OutcomeIgnored    = "ignored"
	OutcomeFailed     = "failed"
)

// Metrics holds the prometheus collectors of the service. Each instance
// owns its registry so several instances can live in the same process.
type Metrics struct {
	registry            *prometheus.Registry
	StreamMessagesTotal *prometheus.CounterVec
	StreamConnected     prometheus.Gauge
	ShelfEntries        *prometheus.GaugeVec
	ShelfCopies         *prometheus.GaugeVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LiveClients         prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StreamMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_stream_messages_total",
				Help: "Total stream messages by outcome (aggregated, ignored, failed).",
			},
			[]string{"outcome"},
		),
		StreamConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelf_stream_connected",
				Help: "Whether the stream receiver is connected (1) or not (0).",
			},
		),
		ShelfEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelf_distinct_books",
				Help: "Number of distinct barcodes currently displayed per shelf.",
			},
			[]string{"shelf"},
		),
		ShelfCopies: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelf_book_copies",
				Help: "Number of book copies currently displayed per shelf.",
			},
			[]string{"shelf"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		LiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelf_live_clients",
				Help: "Number of dashboard clients connected to the live feed.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StreamMessagesTotal,
		m.StreamConnected,
		m.ShelfEntries,
		m.ShelfCopies,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LiveClients,
	)
	return m
}

// ObserveBoard updates the per-shelf gauges. It is registered as a board listener.
func (m *Metrics) ObserveBoard(snapshot ShelfSnapshot) {
	for name, entries := range snapshot {
		m.ShelfEntries.WithLabelValues(string(name)).Set(float64(len(entries)))
		m.ShelfCopies.WithLabelValues(string(name)).Set(float64(Copies(entries)))
	}
}

// Handler returns the prometheus scrape handler of this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
