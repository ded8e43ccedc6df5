package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drydeck/drydeck/internal/commands"
)

// Metrics holds the Prometheus collectors exported on /metrics. Labels never
// carry address IDs or raw paths.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	commandTotal         *prometheus.CounterVec
	commandDuration      *prometheus.HistogramVec
}

// NewMetrics registers the drydeck collectors on a dedicated registry along
// with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drydeck_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drydeck_http_requests_in_flight",
			Help: "Current number of HTTP requests being served.",
		}),
		commandTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drydeck_command_total",
			Help: "Total number of executed commands, by command and status.",
		}, []string{"command", "status"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drydeck_command_duration_seconds",
			Help:    "Command execution latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCommand implements commands.Observer.
func (m *Metrics) ObserveCommand(name string, status commands.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commandTotal.WithLabelValues(name, string(status)).Inc()
	m.commandDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Middleware records request duration and in-flight counts. The route label
// is the matched ServeMux pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()
		defer m.httpRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

var _ commands.Observer = (*Metrics)(nil)
