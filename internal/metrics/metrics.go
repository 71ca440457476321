package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_received_total",
		Help: "Total number of messages read from a queue source, labelled by source.",
	}, []string{"source"})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_processed_total",
		Help: "Total number of events routed, labelled by event type and outcome.",
	}, []string{"event_type", "outcome"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_dropped_total",
		Help: "Total number of messages dropped before routing, labelled by reason.",
	}, []string{"reason"})

	ChannelAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_channel_attempts_total",
		Help: "Total number of channel send attempts, labelled by channel, role and status.",
	}, []string{"channel", "role", "status"})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_event_processing_duration_ms",
		Help:    "End-to-end event dispatch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_utilization_ratio",
		Help: "Current engine queue utilization (0–1).",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_config_reloads_total",
		Help: "Total number of config reload attempts, labelled by status.",
	}, []string{"status"})
)
