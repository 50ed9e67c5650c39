// Package events defines event types for pipeline and execution lifecycle
// notifications.
package events

import "time"

type EventType string

// Kafka topic for all textpipe events.
const Topic = "textpipe.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Pipeline definition lifecycle events.
	PipelineCreatedEvent EventType = "pipeline.created"
	PipelineUpdatedEvent EventType = "pipeline.updated"
	PipelineDeletedEvent EventType = "pipeline.deleted"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	PipelineID string         `json:"pipeline_id"`
	UserID     string         `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type PipelineCreated struct {
	BaseEvent

	Name      string `json:"name"`
	StepCount int    `json:"step_count"`
}

func (e PipelineCreated) GetType() EventType {
	return PipelineCreatedEvent
}

type PipelineUpdated struct {
	BaseEvent

	Name          string `json:"name"`
	StepsReplaced bool   `json:"steps_replaced"`
}

func (e PipelineUpdated) GetType() EventType {
	return PipelineUpdatedEvent
}

type PipelineDeleted struct {
	BaseEvent
}

func (e PipelineDeleted) GetType() EventType {
	return PipelineDeletedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	InputLength int    `json:"input_length"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID         string `json:"execution_id"`
	OutputCount         int    `json:"output_count"`
	TotalProcessingTime int64  `json:"total_processing_time"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID         string `json:"execution_id"`
	Error               string `json:"error"`
	OutputCount         int    `json:"output_count"`
	TotalProcessingTime int64  `json:"total_processing_time"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
