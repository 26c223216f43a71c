package models

import "time"

// OperationKind identifies the store operation that removed records.
type OperationKind string

const (
	OpDeleteOne     OperationKind = "delete_one"
	OpDeleteMany    OperationKind = "delete_many"
	OpFindAndDelete OperationKind = "find_and_delete"
)

// MaxSubjectSample bounds the number of record identifiers carried per event.
const MaxSubjectSample = 10

// DeletionEvent is one observed destructive store operation. Events are only
// built when at least one record was actually removed.
type DeletionEvent struct {
	OperationKind    OperationKind `json:"operation_kind"`
	FilterDescriptor string        `json:"filter_descriptor,omitempty"`
	DeletedCount     int64         `json:"deleted_count"`
	SubjectSample    []string      `json:"subject_sample,omitempty"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

// Classification is the classifier verdict for one deletion event.
type Classification struct {
	Suspicious bool     `json:"suspicious"`
	Reason     string   `json:"reason,omitempty"`
	Severity   Severity `json:"severity"`
}
