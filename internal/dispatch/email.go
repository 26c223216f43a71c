package dispatch

import (
	"fmt"
	"net/smtp"
	"strings"

	"delwatch/pkg/models"
)

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Recipient string
	Sender    string
	SMTPAddr  string // host:port
	Username  string
	Password  string
}

// EmailChannel sends a minimal plain-text summary per alert. Enabled only
// when a recipient and SMTP address are configured.
type EmailChannel struct {
	cfg  EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates the email channel.
func NewEmailChannel(cfg EmailConfig) (*EmailChannel, error) {
	if cfg.Recipient == "" {
		return nil, fmt.Errorf("alert recipient is empty")
	}
	if cfg.SMTPAddr == "" {
		return nil, fmt.Errorf("smtp address is empty")
	}
	if cfg.Sender == "" {
		cfg.Sender = "delwatch@" + hostPart(cfg.SMTPAddr)
	}
	return &EmailChannel{cfg: cfg, send: smtp.SendMail}, nil
}

// Name identifies the channel.
func (c *EmailChannel) Name() string { return "email" }

// Send mails a summary of the alert.
func (c *EmailChannel) Send(alert *models.Alert) error {
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, hostPart(c.cfg.SMTPAddr))
	}

	msg := buildMessage(c.cfg.Sender, c.cfg.Recipient, alert)
	if err := c.send(c.cfg.SMTPAddr, auth, c.cfg.Sender, []string{c.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// Close is a no-op.
func (c *EmailChannel) Close() error { return nil }

func buildMessage(from, to string, alert *models.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(alert.Severity.String()), alert.Type)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Alert:       %s\n", alert.AlertID)
	fmt.Fprintf(&b, "Type:        %s\n", alert.Type)
	fmt.Fprintf(&b, "Severity:    %s\n", alert.Severity)
	fmt.Fprintf(&b, "Time:        %s\n", alert.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Environment: %s\n", alert.Environment)
	fmt.Fprintf(&b, "Host:        %s\n", alert.SourceHost)
	fmt.Fprintf(&b, "Operation:   %s removed %d record(s)\n", alert.Details.OperationKind, alert.Details.DeletedCount)
	if alert.Details.FilterDescriptor != "" {
		fmt.Fprintf(&b, "Filter:      %s\n", alert.Details.FilterDescriptor)
	}
	if len(alert.Details.SubjectSample) > 0 {
		fmt.Fprintf(&b, "Sample:      %s\n", strings.Join(alert.Details.SubjectSample, ", "))
	}
	if alert.Details.Reason != "" {
		fmt.Fprintf(&b, "Reason:      %s\n", alert.Details.Reason)
	}
	return []byte(b.String())
}

func hostPart(addr string) string {
	if idx := strings.LastIndex(addr, ":"); idx > 0 {
		return addr[:idx]
	}
	return addr
}
