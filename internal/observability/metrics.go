package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mesto_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mesto_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CardEvents counts card lifecycle events by type.
	CardEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mesto_card_events_total",
		Help: "Total card events by type",
	}, []string{"event_type"})

	// AuthAttempts counts sign-in attempts by outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mesto_auth_attempts_total",
		Help: "Total sign-in attempts by outcome",
	}, []string{"outcome"})

	// WebSocketConnections is the gauge of active feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mesto_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mesto_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// UploadBytes records the stored size of uploaded images.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mesto_upload_bytes",
		Help:    "Size of stored image uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
