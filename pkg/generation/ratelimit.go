package generation

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedGenerator throttles calls toward the backend. Waits respect the
// caller's context, so a run deadline still cancels a queued call.
type RateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator wraps inner with a token bucket allowing
// requestsPerSecond sustained calls and burst immediate ones.
func NewRateLimitedGenerator(inner Generator, requestsPerSecond float64, burst int) *RateLimitedGenerator {
	return &RateLimitedGenerator{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Generate implements Generator.
func (g *RateLimitedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	return g.inner.Generate(ctx, req)
}

// Name implements Generator.
func (g *RateLimitedGenerator) Name() string { return g.inner.Name() }
