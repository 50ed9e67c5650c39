package processor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/textpipe/pkg/generation"
	"github.com/dukex/textpipe/pkg/models"
)

// captureGenerator records the prompt it received and returns a fixed
// completion.
type captureGenerator struct {
	prompt     string
	completion string
	err        error
}

func (g *captureGenerator) Generate(_ context.Context, req generation.Request) (string, error) {
	g.prompt = req.Prompt

	return g.completion, g.err
}

func (g *captureGenerator) Name() string {
	return "capture"
}

func newTestProcessor(gen generation.Generator) *Processor {
	return NewProcessor(gen, slog.Default())
}

func TestProcess_SummarizePrompt(t *testing.T) {
	gen := &captureGenerator{completion: "a short summary"}
	proc := newTestProcessor(gen)

	step := &models.Step{
		ID:     "s1",
		Type:   models.StepTypeSummarize,
		Config: map[string]any{"length": "short", "format": "bullets"},
	}

	output, err := proc.Process(context.Background(), step, "some long text")
	require.NoError(t, err)
	assert.Equal(t, "a short summary", output)

	assert.Contains(t, gen.prompt, "1-2 sentences")
	assert.Contains(t, gen.prompt, "bulleted list")
	assert.Contains(t, gen.prompt, "some long text")
}

func TestProcess_SummarizeDefaults(t *testing.T) {
	gen := &captureGenerator{completion: "summary"}
	proc := newTestProcessor(gen)

	step := &models.Step{ID: "s1", Type: models.StepTypeSummarize}

	_, err := proc.Process(context.Background(), step, "text")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "3-4 sentences")
	assert.Contains(t, gen.prompt, "single paragraph")
}

func TestProcess_TranslatePrompt(t *testing.T) {
	gen := &captureGenerator{completion: "hola"}
	proc := newTestProcessor(gen)

	step := &models.Step{
		ID:     "s1",
		Type:   models.StepTypeTranslate,
		Config: map[string]any{"targetLanguage": "Spanish"},
	}

	output, err := proc.Process(context.Background(), step, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hola", output)
	assert.Contains(t, gen.prompt, "Translate the following text to Spanish")
}

func TestProcess_TranslateDefaultsToEnglish(t *testing.T) {
	gen := &captureGenerator{completion: "hello"}
	proc := newTestProcessor(gen)

	step := &models.Step{ID: "s1", Type: models.StepTypeTranslate}

	_, err := proc.Process(context.Background(), step, "hola")
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "to English")
}

func TestProcess_RewritePrompt(t *testing.T) {
	gen := &captureGenerator{completion: "rewritten"}
	proc := newTestProcessor(gen)

	step := &models.Step{
		ID:     "s1",
		Type:   models.StepTypeRewrite,
		Config: map[string]any{"tone": "casual", "style": "concise"},
	}

	_, err := proc.Process(context.Background(), step, "text")
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "casual tone")
	assert.Contains(t, gen.prompt, "concise style")
}

func TestProcess_ExtractSentimentPrompt(t *testing.T) {
	gen := &captureGenerator{completion: "positive, 0.9"}
	proc := newTestProcessor(gen)

	step := &models.Step{
		ID:     "s1",
		Type:   models.StepTypeExtract,
		Config: map[string]any{"extractType": "sentiment"},
	}

	_, err := proc.Process(context.Background(), step, "great product")
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "sentiment")
	assert.Contains(t, gen.prompt, "confidence score")
}

func TestProcess_UnknownTypePassesThrough(t *testing.T) {
	gen := &captureGenerator{completion: "should not be used"}
	proc := newTestProcessor(gen)

	step := &models.Step{ID: "s1", Type: models.StepType("reticulate")}

	output, err := proc.Process(context.Background(), step, "untouched input")
	require.NoError(t, err)
	assert.Equal(t, "untouched input", output)
	assert.Empty(t, gen.prompt, "generator must not be called for unknown types")
}

func TestProcess_BlankCompletionFails(t *testing.T) {
	for _, completion := range []string{"", "   \n\t"} {
		gen := &captureGenerator{completion: completion}
		proc := newTestProcessor(gen)

		step := &models.Step{ID: "s1", Type: models.StepTypeSummarize}

		_, err := proc.Process(context.Background(), step, "text")
		require.Error(t, err)

		var stepErr *StepExecutionError

		require.ErrorAs(t, err, &stepErr)
		assert.ErrorIs(t, err, generation.ErrEmptyCompletion)
	}
}

func TestProcess_BackendErrorIsWrapped(t *testing.T) {
	backendErr := errors.New("backend unavailable")
	gen := &captureGenerator{err: backendErr}
	proc := newTestProcessor(gen)

	step := &models.Step{ID: "s1", Type: models.StepTypeSummarize}

	_, err := proc.Process(context.Background(), step, "text")
	require.Error(t, err)

	var stepErr *StepExecutionError

	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, models.StepTypeSummarize, stepErr.StepType)
	assert.ErrorIs(t, err, backendErr)
}
