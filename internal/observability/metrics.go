package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operational HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Operational HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of operational HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Persistent store operation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "collection"},
	)

	StoreVersionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_version_conflicts_total",
			Help: "Total number of compare-and-set conflicts on a collection",
		},
		[]string{"collection"},
	)

	// Chatroom metrics
	ChatroomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrooms_created_total",
			Help: "Total number of chatrooms created",
		},
	)

	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatroom_messages_appended_total",
			Help: "Total number of messages appended to chatrooms",
		},
		[]string{"kind"},
	)

	AliasFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alias_fallbacks_total",
			Help: "Aliases produced by the numeric-suffix fallback without a uniqueness check",
		},
	)

	// Session metrics
	SessionPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_polls_total",
			Help: "Total number of chatroom session polls by outcome",
		},
		[]string{"outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of chatroom sessions currently polling",
		},
	)
)
