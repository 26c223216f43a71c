package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"delwatch/internal/logger"
	"delwatch/pkg/models"
)

// AuditRedisConfig configures the Redis audit channel.
type AuditRedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// AuditRedisChannel appends alerts to a Redis list, for deployments where
// the audit trail is consumed by another process.
type AuditRedisChannel struct {
	client *redis.Client
	key    string
}

// NewAuditRedisChannel creates the Redis audit channel.
func NewAuditRedisChannel(cfg AuditRedisConfig) (*AuditRedisChannel, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		cfg.Key = "delwatch:audit"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis audit store: %w", err)
	}

	logger.Infof("Audit Redis channel initialized: %s key=%s", cfg.Addr, cfg.Key)
	return &AuditRedisChannel{client: client, key: cfg.Key}, nil
}

// Name identifies the channel.
func (c *AuditRedisChannel) Name() string { return "audit_redis" }

// Send appends one serialized alert to the audit list.
func (c *AuditRedisChannel) Send(alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.RPush(ctx, c.key, data).Err(); err != nil {
		return fmt.Errorf("failed to append alert to audit list: %w", err)
	}
	return nil
}

// Close closes Redis resources.
func (c *AuditRedisChannel) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
