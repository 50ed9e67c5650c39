// Package runner drives an ordered step chain against an input text and
// produces a terminal result with per-step and total timing.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/textpipe/pkg/models"
	"github.com/dukex/textpipe/pkg/otelhelper"
	"github.com/dukex/textpipe/pkg/processor"
)

// Validation errors. Both are detected before any side effect; callers must
// check them before creating an execution record.
var (
	ErrNoSteps    = errors.New("at least one step is required")
	ErrEmptyInput = errors.New("input text is required")
)

// StepOutput is the recorded result of one completed step.
type StepOutput struct {
	StepID         string `json:"step_id"`
	Output         string `json:"output"`
	ProcessingTime int64  `json:"processing_time"` // milliseconds
}

// Result is the terminal outcome of a run. Outputs holds one entry per step
// up to and including the last step that completed; the failing step and
// everything after it get none.
type Result struct {
	Status              models.ExecutionStatus `json:"status"`
	TotalProcessingTime int64                  `json:"total_processing_time"` // milliseconds
	Outputs             []StepOutput           `json:"outputs"`
	ErrorMessage        string                 `json:"error,omitempty"`
}

// Runner executes step chains. Steps are strictly sequential: each step's
// output is the next step's input, so there is nothing to parallelize.
type Runner struct {
	processor  *processor.Processor
	logger     *slog.Logger
	runTimeout time.Duration
	tracer     trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunTimeout bounds the whole chain with one deadline on top of the
// per-step timeout.
func WithRunTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.runTimeout = timeout
	}
}

// NewRunner creates a runner on top of the given step processor.
func NewRunner(proc *processor.Processor, logger *slog.Logger, opts ...Option) *Runner {
	runner := &Runner{
		processor: proc,
		logger:    logger,
		tracer:    otel.Tracer("textpipe/runner"),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes the steps in ascending order against the input. It returns an
// error only for invalid arguments; a step failure is reported through the
// Result with status failed. Total processing time covers acceptance to
// finalization regardless of outcome.
func (r *Runner) Run(ctx context.Context, steps []*models.Step, input string) (*Result, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	if r.runTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.run",
		attribute.Int("textpipe.step.count", len(steps)),
	)
	defer span.End()

	ordered := make([]*models.Step, len(steps))
	copy(ordered, steps)
	models.SortSteps(ordered)

	result := &Result{
		Status:  models.ExecutionStatusRunning,
		Outputs: make([]StepOutput, 0, len(ordered)),
	}

	carried := input
	startedAt := time.Now()

	for _, step := range ordered {
		stepStartedAt := time.Now()

		output, err := r.processor.Process(ctx, step, carried)
		if err != nil {
			result.Status = models.ExecutionStatusFailed
			result.ErrorMessage = err.Error()
			result.TotalProcessingTime = time.Since(startedAt).Milliseconds()

			r.logger.Error("Step failed, aborting remaining chain",
				"step_id", step.ID,
				"step_type", step.Type,
				"error", err,
			)
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.StepIDKey, step.ID),
				attribute.String(otelhelper.StepTypeKey, string(step.Type)),
			)

			return result, nil
		}

		result.Outputs = append(result.Outputs, StepOutput{
			StepID:         step.ID,
			Output:         output,
			ProcessingTime: time.Since(stepStartedAt).Milliseconds(),
		})

		carried = output
	}

	result.Status = models.ExecutionStatusCompleted
	result.TotalProcessingTime = time.Since(startedAt).Milliseconds()

	r.logger.Info("Run completed",
		"steps", len(ordered),
		"total_processing_time_ms", result.TotalProcessingTime,
	)

	return result, nil
}
