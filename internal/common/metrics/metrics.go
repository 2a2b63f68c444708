package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsAttempted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_attempted_total",
			Help: "Total number of transition attempts by action",
		},
		[]string{"action"},
	)

	TransitionsSucceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_succeeded_total",
			Help: "Total number of committed transitions by action",
		},
		[]string{"action"},
	)

	TransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_rejected_total",
			Help: "Total number of rejected transition attempts by action and error code",
		},
		[]string{"action", "error_code"},
	)

	TransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "workflow_transition_duration_seconds",
			Help: "Duration of transition processing in seconds",
		},
		[]string{"action"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notification dispatch attempts by kind and status",
		},
		[]string{"kind", "status"},
	)

	AuditRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_written_total",
			Help: "Total number of audit records written by outcome",
		},
		[]string{"outcome"},
	)
)
