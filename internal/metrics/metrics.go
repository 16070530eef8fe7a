// Package metrics declares the Prometheus collectors exported at /metrics.
// Collectors are registered on a package-owned registry so tests and
// multiple App instances don't trip over the global default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginError              = "error"
)

// Gate denial reasons.
const (
	DenyUnauthenticated = "unauthenticated"
	DenyForbidden       = "forbidden"
)

// Registry holds every collector below plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// LoginAttempts counts authentication attempts by outcome.
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Authentication attempts by outcome.",
	}, []string{"outcome"})

	// GateDenials counts navigations refused by the authorization gate.
	GateDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "gate",
		Name:      "denials_total",
		Help:      "Requests denied by the authorization gate.",
	}, []string{"reason"})

	// MalformedSessions counts persisted sessions discarded on restore.
	MalformedSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "crm",
		Subsystem: "auth",
		Name:      "malformed_sessions_total",
		Help:      "Persisted sessions that failed to decode and were discarded.",
	})

	// RequestDuration observes HTTP handler latency.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crm",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LoginAttempts,
		GateDenials,
		MalformedSessions,
		RequestDuration,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
