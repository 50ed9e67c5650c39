// Package generation provides the text-generation backend boundary used by
// the step processor. The backend receives a prompt plus model parameters and
// must return non-empty text; anything else is a hard failure for the step.
package generation

import (
	"context"
	"errors"
)

// ErrEmptyCompletion indicates the backend answered without usable text.
var ErrEmptyCompletion = errors.New("generation backend returned empty completion")

// Request carries the prompt and model parameters for one generation call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator is the boundary to a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
