package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
delwatch:
  environment: staging
  thresholds:
    max_deletions_per_hour: 5
    max_deletions_per_day: 50
    bulk_single_operation: 10
    sensitive_patterns:
      - "@gmail.com"
  sweep:
    interval: 30m
  channels:
    audit:
      mode: file
      file:
        path: output/audit.jsonl
    webhook:
      url: http://alerts.internal/hook
      timeout: 3s
  logging:
    enabled: true
    level: debug
    console: true
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "delwatch.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigParsesThresholdsAndChannels(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Delwatch.Environment != "staging" {
		t.Fatalf("unexpected environment %q", cfg.Delwatch.Environment)
	}
	if cfg.Delwatch.Thresholds.MaxDeletionsPerHour != 5 || cfg.Delwatch.Thresholds.MaxDeletionsPerDay != 50 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Delwatch.Thresholds)
	}
	if len(cfg.Delwatch.Thresholds.SensitivePatterns) != 1 {
		t.Fatalf("expected 1 sensitive pattern, got %v", cfg.Delwatch.Thresholds.SensitivePatterns)
	}
	if cfg.Delwatch.Sweep.Interval != 30*time.Minute {
		t.Fatalf("unexpected sweep interval %v", cfg.Delwatch.Sweep.Interval)
	}
	if cfg.Delwatch.Channels.Webhook.URL != "http://alerts.internal/hook" {
		t.Fatalf("unexpected webhook URL %q", cfg.Delwatch.Channels.Webhook.URL)
	}
	if cfg.Delwatch.Channels.Webhook.Timeout != 3*time.Second {
		t.Fatalf("unexpected webhook timeout %v", cfg.Delwatch.Channels.Webhook.Timeout)
	}
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	t.Setenv("DELWATCH_ALERT_EMAIL", "ops@example.test")
	t.Setenv("DELWATCH_SMTP_ADDR", "mail.example.test:587")
	t.Setenv("DELWATCH_WEBHOOK_URL", "http://other.internal/hook")
	t.Setenv("DELWATCH_ENVIRONMENT", "production")

	cfg, err := LoadConfig(writeConfig(t))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Delwatch.Channels.Email.Recipient != "ops@example.test" {
		t.Fatalf("expected env recipient, got %q", cfg.Delwatch.Channels.Email.Recipient)
	}
	if cfg.Delwatch.Channels.Email.SMTPAddr != "mail.example.test:587" {
		t.Fatalf("expected env smtp addr, got %q", cfg.Delwatch.Channels.Email.SMTPAddr)
	}
	if cfg.Delwatch.Channels.Webhook.URL != "http://other.internal/hook" {
		t.Fatalf("expected env webhook to win, got %q", cfg.Delwatch.Channels.Webhook.URL)
	}
	if cfg.Delwatch.Environment != "production" {
		t.Fatalf("expected env environment to win, got %q", cfg.Delwatch.Environment)
	}
}
