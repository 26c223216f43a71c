package classify

import (
	"strings"
	"testing"
	"time"

	"delwatch/pkg/models"
)

type fakeCounts struct {
	hourly int64
	daily  int64
}

func (f fakeCounts) CurrentHourly() int64 { return f.hourly }
func (f fakeCounts) CurrentDaily() int64  { return f.daily }

func testThresholds() Thresholds {
	return Thresholds{
		MaxDeletionsPerHour: 5,
		MaxDeletionsPerDay:  50,
		BulkSingleOperation: 10,
		SensitivePatterns:   []string{"@gmail.com", "@yahoo.com"},
	}
}

func event(count int64, sample ...string) *models.DeletionEvent {
	return &models.DeletionEvent{
		OperationKind: models.OpDeleteMany,
		DeletedCount:  count,
		SubjectSample: sample,
		OccurredAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestClassifyRoutineDeletionDefaultsToMedium(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(2, "tester@example.test"), fakeCounts{hourly: 2, daily: 2})
	if got.Suspicious {
		t.Fatalf("expected routine classification, got %+v", got)
	}
	if got.Severity != models.SeverityMedium {
		t.Fatalf("expected medium severity, got %s", got.Severity)
	}
	if got.Reason != "" {
		t.Fatalf("expected empty reason, got %q", got.Reason)
	}
}

func TestBulkOperationIsSuspiciousRegardlessOfVolume(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(15), fakeCounts{hourly: 1, daily: 1})
	if !got.Suspicious {
		t.Fatalf("expected suspicious classification")
	}
	if got.Severity < models.SeverityHigh {
		t.Fatalf("expected severity >= high, got %s", got.Severity)
	}
	if !strings.Contains(got.Reason, "15") {
		t.Fatalf("expected reason to mention the count, got %q", got.Reason)
	}
}

func TestHourlyRuleFiresOnlyWhenStrictlyOverThreshold(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	at := c.Classify(event(1), fakeCounts{hourly: 5, daily: 5})
	if at.Suspicious {
		t.Fatalf("hourly total equal to threshold must not fire, got %+v", at)
	}

	over := c.Classify(event(1), fakeCounts{hourly: 6, daily: 6})
	if !over.Suspicious {
		t.Fatalf("expected hourly rule to fire at 6 > 5")
	}
	if over.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %s", over.Severity)
	}
	if !strings.Contains(over.Reason, "6") || !strings.Contains(over.Reason, "5") {
		t.Fatalf("expected reason to carry count and threshold, got %q", over.Reason)
	}
}

func TestDailyRuleEscalatesToCritical(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(1), fakeCounts{hourly: 1, daily: 51})
	if !got.Suspicious || got.Severity != models.SeverityCritical {
		t.Fatalf("expected critical daily classification, got %+v", got)
	}
}

func TestSensitiveIdentifierIsCriticalWithoutVolume(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(1, "user@gmail.com"), fakeCounts{hourly: 1, daily: 1})
	if !got.Suspicious {
		t.Fatalf("expected suspicious classification")
	}
	if got.Severity != models.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", got.Severity)
	}
	if !strings.Contains(got.Reason, "real identifier domain detected") {
		t.Fatalf("expected sensitive-identity reason, got %q", got.Reason)
	}
}

func TestSensitiveMatchIsCaseInsensitive(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(1, "User@GMAIL.COM"), fakeCounts{})
	if !got.Suspicious || got.Severity != models.SeverityCritical {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}
}

func TestSeverityCombinationKeepsMaxAndAllReasons(t *testing.T) {
	c := NewClassifier(testThresholds(), nil)

	got := c.Classify(event(15, "user@gmail.com"), fakeCounts{hourly: 1, daily: 1})
	if got.Severity != models.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", got.Severity)
	}
	if !strings.Contains(got.Reason, "real identifier domain detected") {
		t.Fatalf("missing sensitive reason: %q", got.Reason)
	}
	if !strings.Contains(got.Reason, "bulk threshold") {
		t.Fatalf("missing bulk reason: %q", got.Reason)
	}
}

type staticEngine struct {
	matches []Match
}

func (s staticEngine) Apply(event *models.DeletionEvent) []Match { return s.matches }

func TestCustomEngineMatchesCombineWithBuiltinRules(t *testing.T) {
	engine := staticEngine{matches: []Match{{Name: "purge of archived accounts", Severity: models.SeverityCritical}}}
	c := NewClassifier(testThresholds(), engine)

	got := c.Classify(event(1), fakeCounts{hourly: 1, daily: 1})
	if !got.Suspicious || got.Severity != models.SeverityCritical {
		t.Fatalf("expected critical rule match, got %+v", got)
	}
	if !strings.Contains(got.Reason, "purge of archived accounts") {
		t.Fatalf("expected rule name in reason, got %q", got.Reason)
	}
}

func TestBulkThresholdDefaultsWhenUnset(t *testing.T) {
	c := NewClassifier(Thresholds{MaxDeletionsPerHour: 100, MaxDeletionsPerDay: 1000}, nil)

	got := c.Classify(event(11), fakeCounts{hourly: 11, daily: 11})
	if !got.Suspicious {
		t.Fatalf("expected default bulk threshold of %d to fire", DefaultBulkThreshold)
	}
}
