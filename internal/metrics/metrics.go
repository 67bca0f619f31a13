// Package metrics exposes Prometheus metrics for dispatched requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests that did not reach a handler
const unmatchedRoute = "unmatched"

// DispatchMetrics records one sample per dispatched request. It implements
// dispatch.Observer.
type DispatchMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	routesGauge     prometheus.Gauge
	registry        *prometheus.Registry
}

// NewDispatchMetrics creates the collectors and registers them on registry.
// A nil registry gets a fresh one with the Go and process collectors.
func NewDispatchMetrics(namespace string, registry *prometheus.Registry) *DispatchMetrics {
	if namespace == "" {
		namespace = "lambda_http"
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &DispatchMetrics{
		registry: registry,
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "request_duration_seconds",
			Help:      "Dispatch duration in seconds, handler included",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	m.routesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "routes",
			Help:      "Number of registered routes",
		},
	)

	// Register metrics
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.routesGauge,
	)

	return m
}

// ObserveDispatch records a completed request
func (m *DispatchMetrics) ObserveDispatch(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = unmatchedRoute
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetRoutes records the size of the route table
func (m *DispatchMetrics) SetRoutes(n int) {
	m.routesGauge.Set(float64(n))
}

// Registry returns the registry the collectors live in
func (m *DispatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *DispatchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
