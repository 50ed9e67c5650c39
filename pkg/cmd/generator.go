package cmd

import (
	"log/slog"

	"github.com/dukex/textpipe/pkg/generation"
)

const defaultGeneratorBurst = 2

// GeneratorOptions configures the text generation backend built by
// NewGenerator.
type GeneratorOptions struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerSecond float64
}

// NewGenerator builds the generation chain used by every pipeline step:
// an OpenAI-compatible client wrapped with a circuit breaker and an
// outbound rate limiter.
func NewGenerator(opts GeneratorOptions, logger *slog.Logger) generation.Generator {
	client := generation.NewOpenAIClient(generation.Config{
		Name:    "openai",
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	}, logger)

	breaker := generation.NewCircuitBreakerGenerator(client, generation.CircuitBreakerConfig{}, logger)

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return generation.NewRateLimitedGenerator(breaker, rps, defaultGeneratorBurst)
}
