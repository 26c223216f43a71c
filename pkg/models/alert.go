package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// AlertType distinguishes routine audit alerts from flagged ones.
type AlertType string

const (
	AlertRoutineDeletion    AlertType = "routine_deletion"
	AlertSuspiciousDeletion AlertType = "suspicious_deletion"
)

// Alert is the unit handed to dispatch channels. One routine alert is built
// per deletion event; a second suspicious alert is added when the classifier
// flags the event.
type Alert struct {
	AlertID     string       `json:"alert_id"`
	Type        AlertType    `json:"type"`
	Severity    Severity     `json:"severity"`
	Timestamp   time.Time    `json:"timestamp"`
	Environment string       `json:"environment,omitempty"`
	SourceHost  string       `json:"source_host,omitempty"`
	Details     AlertDetails `json:"details"`
}

// AlertDetails carries the observed event plus the classifier verdict.
type AlertDetails struct {
	OperationKind    OperationKind `json:"operation_kind"`
	DeletedCount     int64         `json:"deleted_count"`
	FilterDescriptor string        `json:"filter_descriptor,omitempty"`
	SubjectSample    []string      `json:"subject_sample,omitempty"`
	Reason           string        `json:"reason,omitempty"`
}

// NewAlertID builds a unique alert identifier.
func NewAlertID(kind AlertType) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return string(kind) + "-" + time.Now().Format("20060102150405")
	}
	return string(kind) + "-" + hex.EncodeToString(buf)
}
