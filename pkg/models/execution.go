package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution. Transitions
// are monotonic: pending -> running -> completed | failed.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Execution is one concrete run of a pipeline against a specific input. The
// row is created in running state before any step executes and finalized
// exactly once.
type Execution struct {
	ID                  string             `json:"id"`
	PipelineID          string             `json:"pipeline_id"`
	UserID              string             `json:"user_id"`
	Input               string             `json:"input"`
	Status              ExecutionStatus    `json:"status"`
	TotalProcessingTime int64              `json:"total_processing_time"` // milliseconds
	ErrorMessage        string             `json:"error,omitempty"`
	Outputs             []*ExecutionOutput `json:"outputs"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ExecutionOutput records the result of one completed step. Outputs are
// append-only and cascade with their execution; steps after a failure point
// get no output record.
type ExecutionOutput struct {
	ID             string    `json:"id"`
	ExecutionID    string    `json:"execution_id,omitempty"`
	StepID         string    `json:"step_id"`
	Output         string    `json:"output"`
	ProcessingTime int64     `json:"processing_time"` // milliseconds
	CreatedAt      time.Time `json:"created_at"`
}
