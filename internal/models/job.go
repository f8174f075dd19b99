package models

import (
	"fmt"
	"strings"
	"time"
)

// Operation is the kind of work a job performs, using the service's wire values.
type Operation string

const (
	OperationList        Operation = "VOLUME_LIST"
	OperationHash        Operation = "VOLUME_HASH"
	OperationListAndHash Operation = "VOLUME_LIST_AND_HASH"
)

// Valid reports whether the operation is one that produces a downloadable result.
func (o Operation) Valid() bool {
	switch o {
	case OperationList, OperationHash, OperationListAndHash:
		return true
	default:
		return false
	}
}

// ParseOperation normalises a user or server supplied operation name.
// Accepts the wire values and the short aliases list, hash and list_and_hash
// in any case.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LIST", string(OperationList):
		return OperationList, nil
	case "HASH", string(OperationHash):
		return OperationHash, nil
	case "LIST_AND_HASH", string(OperationListAndHash):
		return OperationListAndHash, nil
	default:
		return "", fmt.Errorf("unsupported job type: %s", s)
	}
}

// NewOperation converts a raw operation string from the API into an
// Operation. Values we do not know about are kept, upper cased.
func NewOperation(s string) Operation {
	if op, err := ParseOperation(s); err == nil {
		return op
	}
	return Operation(strings.ToUpper(s))
}

// Job is an asynchronous unit of work run by the service against a volume.
// This system only observes jobs; it never changes their state.
type Job struct {
	ID          string
	Operation   Operation
	CreatedAt   time.Time
	CompletedAt *time.Time // nil while the job is incomplete

	Errors       []string
	BillingGroup string
	CostCents    *int

	ParentJob *Job
	Children  []Job
}

// IsComplete returns true once the service has recorded a completion time.
func (j *Job) IsComplete() bool {
	return j.CompletedAt != nil
}

// Child returns the first child job with the given operation.
func (j *Job) Child(op Operation) (*Job, bool) {
	for i := range j.Children {
		if j.Children[i].Operation == op {
			return &j.Children[i], true
		}
	}
	return nil, false
}
