package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_gateway_messages_received_total",
			Help: "Total number of inbound messages by channel",
		},
		[]string{"channel"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_gateway_messages_sent_total",
			Help: "Total number of outbound messages by channel",
		},
		[]string{"channel"},
	)

	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_gateway_generation_requests_total",
			Help: "Generation attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "clinic_gateway_generation_latency_seconds",
			Help: "Generation call latency in seconds",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_gateway_queue_depth",
			Help: "Number of generation requests waiting in the queue",
		},
	)

	RateLimitStalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_gateway_rate_limit_stalls_total",
			Help: "Times the generation consumer stalled on a rate window",
		},
	)

	ModelFailovers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_gateway_model_failovers_total",
			Help: "Times the active model descriptor was rotated away from",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_gateway_active_sessions",
			Help: "Number of live conversation sessions",
		},
	)

	AdminSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_gateway_admin_sessions",
			Help: "Number of sessions currently owned by a human operator",
		},
	)
)
