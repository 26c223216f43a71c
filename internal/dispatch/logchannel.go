package dispatch

import (
	"encoding/json"

	"delwatch/internal/logger"
	"delwatch/pkg/models"
)

// LogChannel writes a structured log line per alert. Always enabled.
type LogChannel struct{}

// NewLogChannel creates the log channel.
func NewLogChannel() *LogChannel {
	return &LogChannel{}
}

// Name identifies the channel.
func (c *LogChannel) Name() string { return "log" }

// Send logs the alert at a level derived from its severity.
func (c *LogChannel) Send(alert *models.Alert) error {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return err
	}

	if alert.Severity >= models.SeverityHigh {
		logger.Errorf("ALERT %s type=%s severity=%s details=%s", alert.AlertID, alert.Type, alert.Severity, details)
	} else {
		logger.Warnf("ALERT %s type=%s severity=%s details=%s", alert.AlertID, alert.Type, alert.Severity, details)
	}
	return nil
}

// Close is a no-op.
func (c *LogChannel) Close() error { return nil }
