// Package web provides HTTP request and response types for the pipeline API.
package web

import "github.com/dukex/textpipe/pkg/models"

// StepRequest represents a single transformation step in a pipeline request.
type StepRequest struct {
	Type   string         `json:"type"             validate:"required"`
	Config map[string]any `json:"config,omitempty"`
	Order  int            `json:"order,omitempty"  validate:"omitempty,min=1"`
}

// CreatePipelineRequest represents the request body for creating a pipeline.
type CreatePipelineRequest struct {
	Name        string        `json:"name"                  validate:"required,min=1"`
	Description string        `json:"description,omitempty"`
	UserID      string        `json:"user_id"               validate:"required"`
	Steps       []StepRequest `json:"steps"                 validate:"required,min=1,dive"`
}

// UpdatePipelineRequest represents the request body for updating a pipeline.
// Omitted steps keep the pipeline's current step list; a provided list
// replaces it wholesale.
type UpdatePipelineRequest struct {
	Name        *string       `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string       `json:"description,omitempty"`
	UserID      string        `json:"user_id"               validate:"required"`
	Steps       []StepRequest `json:"steps,omitempty"       validate:"omitempty,min=1,dive"`
}

// ExecutePipelineRequest represents the request body for running a stored
// pipeline against input text.
type ExecutePipelineRequest struct {
	PipelineID string `json:"pipeline_id" validate:"required"`
	UserID     string `json:"user_id"     validate:"required"`
	Input      string `json:"input"       validate:"required"`
}

// AdHocExecutionRequest represents the request body for running a transient
// step list without persisting a pipeline or execution.
type AdHocExecutionRequest struct {
	Input string        `json:"input" validate:"required"`
	Steps []StepRequest `json:"steps" validate:"required,min=1,dive"`
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Email string `json:"email"          validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

func toModelSteps(steps []StepRequest) []*models.Step {
	if steps == nil {
		return nil
	}

	out := make([]*models.Step, 0, len(steps))
	for _, step := range steps {
		out = append(out, &models.Step{
			Type:   models.StepType(step.Type),
			Config: step.Config,
			Order:  step.Order,
		})
	}

	return out
}
