// Package metrics exposes Prometheus instrumentation for certificate
// generation, exports, and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
	ResultBusy    = "busy"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestDuration tracks full HTTP request duration
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsTotal counts requests by route and status
	HTTPRequestsTotal *prometheus.CounterVec

	// GenerationsTotal counts submissions by outcome
	GenerationsTotal *prometheus.CounterVec

	// ExportsTotal counts exports by format and outcome
	ExportsTotal *prometheus.CounterVec

	// ExportDuration tracks capture plus encoding time
	ExportDuration *prometheus.HistogramVec

	// ActiveSessions is the number of in-memory form sessions
	ActiveSessions prometheus.Gauge
}

// New creates and registers the metrics on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certificate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_generations_total",
			Help: "Certificate submissions by result",
		}, []string{"result", "qr"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_exports_total",
			Help: "Certificate exports by format and result",
		}, []string{"format", "result"}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certificate_export_duration_seconds",
			Help:    "Time spent capturing and encoding an export",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"format"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "certificate_active_sessions",
			Help: "Form sessions currently held in memory",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
		m.GenerationsTotal,
		m.ExportsTotal,
		m.ExportDuration,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route pattern
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveGeneration records the outcome of a submission
func (m *Metrics) ObserveGeneration(result string, includeQR bool) {
	m.GenerationsTotal.WithLabelValues(result, strconv.FormatBool(includeQR)).Inc()
}

// ObserveExport records the outcome and latency of an export
func (m *Metrics) ObserveExport(format, result string, started time.Time) {
	m.ExportsTotal.WithLabelValues(format, result).Inc()
	m.ExportDuration.WithLabelValues(format).Observe(time.Since(started).Seconds())
}
