package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery worker metrics for Prometheus monitoring.
var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "delivery_queue_depth",
			Help: "Number of outstanding delivery queue entries",
		},
	)

	TasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_tasks_processed_total",
			Help: "Total number of delivery tasks processed by outcome",
		},
		[]string{"outcome"}, // delivered, transient_failure, permanent_failure, invalid_address
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_send_duration_seconds",
			Help:    "Duration of outbound email transport calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)
