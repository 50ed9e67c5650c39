// Package processor turns one pipeline step plus an input text into an output
// text by prompting a text-generation backend.
package processor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/textpipe/pkg/generation"
	"github.com/dukex/textpipe/pkg/models"
)

const defaultStepTimeout = 2 * time.Minute

// Processor executes individual steps. The generation client is injected so
// callers and tests can substitute backends per instance; there is no shared
// client state.
type Processor struct {
	generator   generation.Generator
	logger      *slog.Logger
	stepTimeout time.Duration
}

// Option configures a Processor.
type Option func(*Processor)

// WithStepTimeout bounds each backend call. The original system had no
// timeout at all; a slow backend held the whole run.
func WithStepTimeout(timeout time.Duration) Option {
	return func(p *Processor) {
		if timeout > 0 {
			p.stepTimeout = timeout
		}
	}
}

// NewProcessor creates a step processor backed by the given generator.
func NewProcessor(generator generation.Generator, logger *slog.Logger, opts ...Option) *Processor {
	processor := &Processor{
		generator:   generator,
		logger:      logger,
		stepTimeout: defaultStepTimeout,
	}

	for _, opt := range opts {
		opt(processor)
	}

	return processor
}

// Process executes one step against the input text. Unrecognized step types
// are a defined fallback: the input passes through unchanged. Backend errors
// and empty completions return a StepExecutionError.
func (p *Processor) Process(ctx context.Context, step *models.Step, input string) (string, error) {
	prompt, ok := p.buildPrompt(step, input)
	if !ok {
		p.logger.Warn("Unknown step type, passing input through unchanged",
			"step_id", step.ID,
			"step_type", step.Type,
		)

		return input, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()

	output, err := p.generator.Generate(ctx, generation.Request{Prompt: prompt})
	if err != nil {
		return "", NewStepExecutionError(step.Type, err)
	}

	// Enforced here as well as in the backend client, so any Generator
	// implementation is held to the same contract.
	if strings.TrimSpace(output) == "" {
		return "", NewStepExecutionError(step.Type, generation.ErrEmptyCompletion)
	}

	p.logger.Debug("Step processed",
		"step_id", step.ID,
		"step_type", step.Type,
		"input_length", len(input),
		"output_length", len(output),
	)

	return output, nil
}

func (p *Processor) buildPrompt(step *models.Step, input string) (string, bool) {
	switch step.Type {
	case models.StepTypeSummarize:
		return summarizePrompt(models.ParseSummarizeConfig(step.Config), input), true
	case models.StepTypeTranslate:
		return translatePrompt(models.ParseTranslateConfig(step.Config), input), true
	case models.StepTypeRewrite:
		return rewritePrompt(models.ParseRewriteConfig(step.Config), input), true
	case models.StepTypeExtract:
		return extractPrompt(models.ParseExtractConfig(step.Config), input), true
	default:
		return "", false
	}
}
