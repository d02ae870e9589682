package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RegistrationsTotal counts successful user registrations.
	RegistrationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of successful user registrations",
		},
	)

	// MatchQueriesTotal counts match lookups by whether any match was found.
	MatchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_queries_total",
			Help: "Total number of match queries by result",
		},
		[]string{"result"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, RegistrationsTotal, MatchQueriesTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /users/123 -> /users/{id}, /users/123/courses -> /users/{id}/courses.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncRegistrations increments the registrations counter (call after a successful register).
func IncRegistrations() {
	RegistrationsTotal.Inc()
}

// IncMatchQueries increments the match queries counter. result is "hit" or "miss".
func IncMatchQueries(result string) {
	MatchQueriesTotal.WithLabelValues(result).Inc()
}
