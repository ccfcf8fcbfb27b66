// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarium_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// LendingOperations counts lend and return attempts by outcome
	// (ok, not_found, unavailable, conflict, error).
	LendingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarium_lending_operations_total",
		Help: "Lend and return attempts by outcome",
	}, []string{"operation", "outcome"})

	// LendingTransactionLatency records the duration of lending transactions.
	LendingTransactionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "librarium_lending_transaction_seconds",
		Help:    "Lending transaction latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// AuthEvents counts session lifecycle events (login, refresh, logout) by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarium_auth_events_total",
		Help: "Session lifecycle events by outcome",
	}, []string{"event", "outcome"})
)

// TrackLending returns a function that records the transaction latency when called (e.g. defer).
func TrackLending(operation string) func() {
	start := time.Now()
	return func() {
		LendingTransactionLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordLending increments the lending counter for the operation and outcome.
func RecordLending(operation, outcome string) {
	LendingOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordAuthEvent increments the auth event counter.
func RecordAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
