package classify

import (
	"fmt"
	"strings"

	"delwatch/pkg/models"
)

// DefaultBulkThreshold is the per-operation record count above which a single
// delete is suspicious on its own.
const DefaultBulkThreshold = 10

// Thresholds are the immutable classification limits, loaded once at startup.
type Thresholds struct {
	MaxDeletionsPerHour int64
	MaxDeletionsPerDay  int64
	BulkSingleOperation int64
	SensitivePatterns   []string
}

// VolumeReader exposes the windowed counts the classifier checks. The counter
// must already include the event being classified.
type VolumeReader interface {
	CurrentHourly() int64
	CurrentDaily() int64
}

// Classifier applies the fixed deletion-pattern rules plus any operator
// supplied detection rules. Classify is a pure function: no I/O, no counter
// mutation.
type Classifier struct {
	thresholds Thresholds
	engine     Engine
}

// NewClassifier builds a classifier. A nil engine disables custom rules.
func NewClassifier(thresholds Thresholds, engine Engine) *Classifier {
	if thresholds.BulkSingleOperation <= 0 {
		thresholds.BulkSingleOperation = DefaultBulkThreshold
	}
	if engine == nil {
		engine = &NoopEngine{}
	}
	return &Classifier{thresholds: thresholds, engine: engine}
}

// Thresholds returns the configured limits.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify evaluates all rules in fixed order. Every fired rule contributes
// its justification to the reason; the final severity is the maximum among
// fired rules. An event with no fired rule is medium and not suspicious.
func (c *Classifier) Classify(event *models.DeletionEvent, counts VolumeReader) models.Classification {
	severity := models.SeverityMedium
	var reasons []string

	if pattern, sample, ok := c.matchSensitive(event.SubjectSample); ok {
		severity = severity.Max(models.SeverityCritical)
		reasons = append(reasons, fmt.Sprintf("real identifier domain detected: %q matches pattern %q", sample, pattern))
	}

	if daily := counts.CurrentDaily(); daily > c.thresholds.MaxDeletionsPerDay {
		severity = severity.Max(models.SeverityCritical)
		reasons = append(reasons, fmt.Sprintf("daily deletion volume %d exceeds threshold %d", daily, c.thresholds.MaxDeletionsPerDay))
	}

	if hourly := counts.CurrentHourly(); hourly > c.thresholds.MaxDeletionsPerHour {
		severity = severity.Max(models.SeverityHigh)
		reasons = append(reasons, fmt.Sprintf("hourly deletion volume %d exceeds threshold %d", hourly, c.thresholds.MaxDeletionsPerHour))
	}

	if event.DeletedCount > c.thresholds.BulkSingleOperation {
		severity = severity.Max(models.SeverityHigh)
		reasons = append(reasons, fmt.Sprintf("single operation removed %d records (bulk threshold %d)", event.DeletedCount, c.thresholds.BulkSingleOperation))
	}

	for _, match := range c.engine.Apply(event) {
		severity = severity.Max(match.Severity)
		reasons = append(reasons, fmt.Sprintf("detection rule matched: %s", match.Name))
	}

	if len(reasons) == 0 {
		return models.Classification{Suspicious: false, Severity: models.SeverityMedium}
	}
	return models.Classification{
		Suspicious: true,
		Reason:     strings.Join(reasons, "; "),
		Severity:   severity,
	}
}

// matchSensitive reports the first (pattern, sample) pair where a sampled
// identifier contains a sensitive pattern, case-insensitive.
func (c *Classifier) matchSensitive(sample []string) (string, string, bool) {
	for _, pattern := range c.thresholds.SensitivePatterns {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" {
			continue
		}
		for _, subject := range sample {
			if strings.Contains(strings.ToLower(subject), p) {
				return pattern, subject, true
			}
		}
	}
	return "", "", false
}
