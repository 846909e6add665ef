// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cobill"

var (
	// HTTPRequests counts handled requests by method, route template and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EventsPublished counts realtime events handed to a broadcaster.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "events_published_total",
		Help:      "Realtime events published, by event type.",
	}, []string{"event"})

	// EventsDropped counts frames discarded because a peer's send queue was full.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Realtime frames dropped for slow subscribers.",
	})

	// RelayErrors counts failures publishing to or decoding from Redis.
	RelayErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "relay_errors_total",
		Help:      "Errors publishing to or consuming from the Redis relay.",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "ws_connections",
		Help:      "Open WebSocket connections.",
	})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Expense sessions created.",
	})

	// ParticipantsJoined counts joins by outcome: "created" or "existing".
	ParticipantsJoined = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "participants_joined_total",
		Help:      "Session joins, by outcome.",
	}, []string{"outcome"})

	ItemsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_added_total",
		Help:      "Expense items recorded.",
	})

	// CodeCollisions counts session code draws that were already taken.
	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_code_collisions_total",
		Help:      "Generated session codes rejected as duplicates.",
	})
)
