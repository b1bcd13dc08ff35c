// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
    "strconv"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    APIRequestsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "api_requests_total",
            Help: "Total number of API requests",
        },
        []string{"method", "route", "status"},
    )

    APIRequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "api_request_duration_seconds",
            Help:    "API request latency in seconds",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "route"},
    )

    APIActiveRequests = promauto.NewGauge(
        prometheus.GaugeOpts{
            Name: "api_active_requests",
            Help: "Requests currently being served",
        },
    )

    // BookingTransitions counts lifecycle transitions by entity and target status.
    BookingTransitions = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "booking_transitions_total",
            Help: "Booking request and booking status transitions",
        },
        []string{"entity", "to"},
    )

    EventsPublished = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "queue_events_published_total",
            Help: "Booking lifecycle events published to the broker",
        },
        []string{"type", "result"},
    )

    CircuitBreakerState = promauto.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "circuit_breaker_state",
            Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
        },
        []string{"name"},
    )

    CircuitBreakerRequests = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "circuit_breaker_requests_total",
            Help: "Requests through a circuit breaker by result",
        },
        []string{"name", "result"},
    )
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
    APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
    APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordTransition counts a status change of a booking request or booking.
func RecordTransition(entity, to string) {
    BookingTransitions.WithLabelValues(entity, to).Inc()
}

func TrackActiveRequest(start bool) {
    if start {
        APIActiveRequests.Inc()
        return
    }
    APIActiveRequests.Dec()
}
