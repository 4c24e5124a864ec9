package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HeartbeatsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelops_heartbeats_written_total",
		Help: "Heartbeat records stamped to the store.",
	})

	PresenceEvaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelops_presence_evaluations_total",
		Help: "Full presence scans over all heartbeat records.",
	})

	SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelops_sessions_closed_total",
		Help: "Sessions finalized and appended to the session log.",
	})

	ActivityEntriesLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labelops_activity_entries_logged_total",
		Help: "Entries appended to the bounded activity log.",
	})
)
