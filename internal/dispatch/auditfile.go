package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"delwatch/internal/logger"
	"delwatch/pkg/models"
)

// AuditFileChannel appends alerts to a JSONL audit file. The file is opened
// append-only; this subsystem has no update or delete path over it.
type AuditFileChannel struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewAuditFileChannel creates an append-only JSONL audit channel.
func NewAuditFileChannel(path string) (*AuditFileChannel, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	logger.Infof("Audit file channel initialized: %s", path)
	return &AuditFileChannel{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Name identifies the channel.
func (c *AuditFileChannel) Name() string { return "audit_file" }

// Send appends one serialized alert.
func (c *AuditFileChannel) Send(alert *models.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encoder.Encode(alert); err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	return nil
}

// Close closes the audit file.
func (c *AuditFileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		return c.file.Close()
	}
	return nil
}
