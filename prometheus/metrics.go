// Package prometheus decorates sitegraph services with Prometheus metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitegraph"

// Metrics holds the collectors shared by the decorators.
type Metrics struct {
	FetchRequests *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchBytes    prometheus.Counter

	EmbedRequests *prometheus.CounterVec
	EmbedTexts    prometheus.Counter
	EmbedDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Fetch attempts by host and status class.",
		}, []string{"host", "status"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Fetch latency by host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Response body bytes fetched.",
		}),
		EmbedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_requests_total",
			Help:      "Embedding provider calls by result code.",
		}, []string{"code"}),
		EmbedTexts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_texts_total",
			Help:      "Texts submitted for embedding.",
		}),
		EmbedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embed_duration_seconds",
			Help:      "Embedding provider latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.FetchRequests, m.FetchDuration, m.FetchBytes,
		m.EmbedRequests, m.EmbedTexts, m.EmbedDuration,
	)
	return m
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
