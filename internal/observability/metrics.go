package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments for the service. The registry
// is owned by the instance and injected into whatever needs to record an
// observation, so tests can build their own.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	ticketsTotal  *prometheus.CounterVec
	ticketLatency prometheus.Histogram
	errorsTotal   *prometheus.CounterVec
}

// NewMetrics builds a registry with the service instruments plus the
// standard process and Go collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		ticketsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickets_total",
				Help: "Total tickets observed, labelled by the status written.",
			},
			[]string{"status"},
		),
		ticketLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_response_time_seconds",
				Help:    "Ticket creation handling time in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total failed HTTP requests, labelled by error code.",
			},
			[]string{"method", "path", "code"},
		),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.ticketsTotal,
		m.ticketLatency,
		m.errorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest tracks one completed HTTP request.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpLatency.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordTicketStatus counts a ticket status write (creation or transition).
func (m *Metrics) RecordTicketStatus(status string) {
	if m == nil {
		return
	}
	m.ticketsTotal.WithLabelValues(status).Inc()
}

// RecordError counts a failed request by its error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveTicketCreation records how long a ticket creation took end to end.
func (m *Metrics) ObserveTicketCreation(duration time.Duration) {
	if m == nil {
		return
	}
	m.ticketLatency.Observe(duration.Seconds())
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
