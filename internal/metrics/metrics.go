package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the monitoring pipeline. Channel errors are the only
// operator-visible signal for degraded delivery since channels never retry.
var (
	DeletionsObserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delwatch_deletions_observed_total",
		Help: "Delete operations that removed at least one record.",
	})

	RecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delwatch_records_deleted_total",
		Help: "Total records removed by observed delete operations.",
	})

	SuspiciousAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delwatch_suspicious_alerts_total",
		Help: "Suspicious deletion alerts by severity.",
	}, []string{"severity"})

	AlertsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delwatch_alerts_dispatched_total",
		Help: "Alert delivery attempts per channel.",
	}, []string{"channel"})

	ChannelErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delwatch_channel_errors_total",
		Help: "Failed alert deliveries per channel.",
	}, []string{"channel"})

	BucketsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delwatch_buckets_swept_total",
		Help: "Counter buckets evicted by the periodic sweep.",
	})
)
