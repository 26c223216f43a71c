package monitor

import (
	"context"
	"os"
	"sync"
	"time"

	"delwatch/internal/classify"
	"delwatch/internal/dispatch"
	"delwatch/internal/logger"
	"delwatch/internal/metrics"
	"delwatch/internal/window"
	"delwatch/pkg/models"
)

// Config controls monitor behavior.
type Config struct {
	Environment   string
	SourceHost    string
	SweepInterval time.Duration
}

// Monitor is the mutation-monitoring engine: it accumulates deletion volume,
// classifies each observed event and fans alerts out. One instance is built
// at startup and passed wherever stores are instrumented; there is no ambient
// global.
type Monitor struct {
	cfg        Config
	counter    *window.Counter
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher

	inflight sync.WaitGroup
	now      func() time.Time
}

// New creates a monitor.
func New(cfg Config, counter *window.Counter, classifier *classify.Classifier, dispatcher *dispatch.Dispatcher) *Monitor {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.SourceHost == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.SourceHost = host
		}
	}
	return &Monitor{
		cfg:        cfg,
		counter:    counter,
		classifier: classifier,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Observe feeds one deletion event through the pipeline. It never panics and
// never returns an error: the underlying delete has already committed, so
// monitoring failures degrade to a log line. Dispatch happens out-of-band so
// slow channels never add latency to the caller.
func (m *Monitor) Observe(event *models.DeletionEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Deletion monitoring failed: %v", r)
		}
	}()

	if event == nil || event.DeletedCount <= 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	metrics.DeletionsObserved.Inc()
	metrics.RecordsDeleted.Add(float64(event.DeletedCount))

	m.counter.Increment(event.OccurredAt, event.DeletedCount)
	cls := m.classifier.Classify(event, m.counter)

	alerts := make([]*models.Alert, 0, 2)
	alerts = append(alerts, m.buildAlert(models.AlertRoutineDeletion, models.SeverityMedium, event, models.Classification{}))
	if cls.Suspicious {
		metrics.SuspiciousAlerts.WithLabelValues(cls.Severity.String()).Inc()
		alerts = append(alerts, m.buildAlert(models.AlertSuspiciousDeletion, cls.Severity, event, cls))
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		for _, alert := range alerts {
			m.dispatcher.Dispatch(alert)
		}
	}()
}

func (m *Monitor) buildAlert(typ models.AlertType, severity models.Severity, event *models.DeletionEvent, cls models.Classification) *models.Alert {
	return &models.Alert{
		AlertID:     models.NewAlertID(typ),
		Type:        typ,
		Severity:    severity,
		Timestamp:   event.OccurredAt,
		Environment: m.cfg.Environment,
		SourceHost:  m.cfg.SourceHost,
		Details: models.AlertDetails{
			OperationKind:    event.OperationKind,
			DeletedCount:     event.DeletedCount,
			FilterDescriptor: event.FilterDescriptor,
			SubjectSample:    event.SubjectSample,
			Reason:           cls.Reason,
		},
	}
}

// Run drives the periodic bucket sweep until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			removed := m.counter.Sweep(now)
			if removed > 0 {
				metrics.BucketsSwept.Add(float64(removed))
				logger.Debugf("Sweep removed %d expired buckets", removed)
			}
		}
	}
}

// Flush waits for in-flight dispatches. Shutdown and test hook.
func (m *Monitor) Flush() {
	m.inflight.Wait()
}

// Stats is the point-in-time counter and threshold snapshot.
type Stats struct {
	HourlyDeletions       int64           `json:"hourlyDeletions"`
	DailyDeletions        int64           `json:"dailyDeletions"`
	TotalTrackedDeletions int64           `json:"totalTrackedDeletions"`
	Thresholds            StatsThresholds `json:"thresholds"`
}

// StatsThresholds mirrors the configured limits.
type StatsThresholds struct {
	MaxDeletionsPerHour int64    `json:"maxDeletionsPerHour"`
	MaxDeletionsPerDay  int64    `json:"maxDeletionsPerDay"`
	SensitivePatterns   []string `json:"sensitivePatterns"`
}

// Stats reads the current snapshot. Read-only and safe at any concurrency.
func (m *Monitor) Stats() Stats {
	th := m.classifier.Thresholds()
	return Stats{
		HourlyDeletions:       m.counter.CurrentHourly(),
		DailyDeletions:        m.counter.CurrentDaily(),
		TotalTrackedDeletions: m.counter.Total(),
		Thresholds: StatsThresholds{
			MaxDeletionsPerHour: th.MaxDeletionsPerHour,
			MaxDeletionsPerDay:  th.MaxDeletionsPerDay,
			SensitivePatterns:   th.SensitivePatterns,
		},
	}
}

// SetNow overrides the clock. Test hook.
func (m *Monitor) SetNow(now func() time.Time) {
	m.now = now
}
