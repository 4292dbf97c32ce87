package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	credentialsIssued  *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	tokenCollisions    prometheus.Counter
	encodingFailures   prometheus.Counter
	credentialsExpired prometheus.Counter
}

// NewMetrics initializes and registers collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP requests that ended in a domain error, by code.",
		}, []string{"method", "path", "code"}),
		credentialsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credentials_issued_total",
			Help: "Credentials created, by initial status.",
		}, []string{"status"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_verifications_total",
			Help: "Token verifications, by outcome reason.",
		}, []string{"reason"}),
		tokenCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credential_token_collisions_total",
			Help: "Token inserts rejected by the uniqueness constraint.",
		}),
		encodingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credential_encoding_failures_total",
			Help: "QR payloads that could not be produced or attached.",
		}),
		credentialsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credentials_expired_total",
			Help: "Credentials marked expired by the sweeper.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.credentialsIssued,
		m.verifications,
		m.tokenCollisions,
		m.encodingFailures,
		m.credentialsExpired,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// CredentialIssued counts a created credential.
func (m *Metrics) CredentialIssued(status string) {
	if m == nil {
		return
	}
	m.credentialsIssued.WithLabelValues(status).Inc()
}

// Verification counts a verification outcome.
func (m *Metrics) Verification(reason string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(reason).Inc()
}

// TokenCollision counts a rejected token insert.
func (m *Metrics) TokenCollision() {
	if m == nil {
		return
	}
	m.tokenCollisions.Inc()
}

// EncodingFailure counts a missing QR payload.
func (m *Metrics) EncodingFailure() {
	if m == nil {
		return
	}
	m.encodingFailures.Inc()
}

// CredentialsExpired counts credentials flipped by the sweeper.
func (m *Metrics) CredentialsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.credentialsExpired.Add(float64(n))
}
