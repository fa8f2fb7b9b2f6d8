package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campuswell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// NotificationsPublished counts notification events published per type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campuswell_notifications_published_total",
		Help: "Total number of notification events published by type",
	}, []string{"type"})

	// JobRuns counts scheduled job runs by job name and outcome.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campuswell_job_runs_total",
		Help: "Total number of scheduled job runs by outcome",
	}, []string{"job", "outcome"})

	// JobEmails counts per-recipient email attempts within scheduled jobs.
	JobEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campuswell_job_emails_total",
		Help: "Total number of emails attempted by scheduled jobs, by outcome",
	}, []string{"job", "outcome"})
)
