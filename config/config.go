package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Delwatch DelwatchConfig `yaml:"delwatch"`
}

// DelwatchConfig is the project configuration.
type DelwatchConfig struct {
	Environment string          `yaml:"environment"`
	Store       StoreConfig     `yaml:"store"`
	Thresholds  ThresholdConfig `yaml:"thresholds"`
	Rules       RulesConfig     `yaml:"rules"`
	Sweep       SweepConfig     `yaml:"sweep"`
	Channels    ChannelsConfig  `yaml:"channels"`
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// StoreConfig controls the Redis record store.
type StoreConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls Redis access.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ThresholdConfig controls deletion-volume classification. Loaded once at
// startup and immutable afterwards.
type ThresholdConfig struct {
	MaxDeletionsPerHour int64    `yaml:"max_deletions_per_hour"`
	MaxDeletionsPerDay  int64    `yaml:"max_deletions_per_day"`
	BulkSingleOperation int64    `yaml:"bulk_single_operation"`
	SensitivePatterns   []string `yaml:"sensitive_patterns"`
}

// RulesConfig controls optional Sigma detection rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SweepConfig controls bucket eviction.
type SweepConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Retention time.Duration `yaml:"retention"`
}

// ChannelsConfig controls alert delivery channels. Log and audit are always
// on; email and webhook enable themselves when configured.
type ChannelsConfig struct {
	Audit   AuditConfig   `yaml:"audit"`
	Email   EmailConfig   `yaml:"email"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// AuditConfig controls the durable audit sink.
type AuditConfig struct {
	Mode  string           `yaml:"mode"` // file|redis
	File  FileOutputConfig `yaml:"file"`
	Redis AuditRedisConfig `yaml:"redis"`
}

// AuditRedisConfig controls the Redis audit list.
type AuditRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// EmailConfig controls the SMTP alert channel.
type EmailConfig struct {
	Recipient string `yaml:"recipient"`
	Sender    string `yaml:"sender"`
	SMTPAddr  string `yaml:"smtp_addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// WebhookConfig controls the webhook alert channel.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ServerConfig controls the stats/metrics HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file, then applies environment
// overrides for channel settings.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(&cfg)
	return &cfg, nil
}

// ApplyEnvOverrides lets deployment environments enable or reconfigure the
// optional channels without editing the config file. Secrets stay out of YAML.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DELWATCH_ALERT_EMAIL"); v != "" {
		cfg.Delwatch.Channels.Email.Recipient = v
	}
	if v := os.Getenv("DELWATCH_SMTP_ADDR"); v != "" {
		cfg.Delwatch.Channels.Email.SMTPAddr = v
	}
	if v := os.Getenv("DELWATCH_SMTP_USERNAME"); v != "" {
		cfg.Delwatch.Channels.Email.Username = v
	}
	if v := os.Getenv("DELWATCH_SMTP_PASSWORD"); v != "" {
		cfg.Delwatch.Channels.Email.Password = v
	}
	if v := os.Getenv("DELWATCH_WEBHOOK_URL"); v != "" {
		cfg.Delwatch.Channels.Webhook.URL = v
	}
	if v := os.Getenv("DELWATCH_ENVIRONMENT"); v != "" {
		cfg.Delwatch.Environment = v
	}
}
