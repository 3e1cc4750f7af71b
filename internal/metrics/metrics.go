// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request-level metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      prometheus.Histogram
	authFailures prometheus.Counter
}

// NewCollector registers the metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hunter_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "status_code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hunter_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hunter_auth_failures_total",
			Help: "Authenticated calls rejected by the token middleware",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.authFailures)
	return c
}

// RecordRequest records one completed request.
func (c *Collector) RecordRequest(route string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	c.latency.Observe(duration.Seconds())
}

// RecordAuthFailure records a rejected bearer token.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// Handler exposes the registry for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
