package runlog

import "time"

// Status describes the outcome of one conversion step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// DataType names the pipeline branch a record belongs to.
type DataType string

const (
	DataMRI  DataType = "mri"
	DataBeh  DataType = "beh"
	DataRate DataType = "rate"
	DataPhys DataType = "phys"
)

// Record is one subject/session/datatype conversion attempt within an
// invocation.
type Record struct {
	ID           int64
	InvocationID string
	Subject      string
	Session      string
	DataType     DataType
	Status       Status
	Detail       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter narrows List results. Zero-value fields match everything.
type Filter struct {
	InvocationID string
	Subject      string
	Status       Status
}
