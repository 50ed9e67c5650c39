package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
}

// CircuitBreakerGenerator wraps a Generator with circuit breaker protection.
// When the backend fails repeatedly, the circuit opens and subsequent calls
// fail fast without reaching it.
type CircuitBreakerGenerator struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewCircuitBreakerGenerator wraps inner with a circuit breaker. Zero-valued
// config fields fall back to defaults.
func NewCircuitBreakerGenerator(inner Generator, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerGenerator {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "generation:" + inner.Name(),
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &CircuitBreakerGenerator{
		inner:   inner,
		breaker: breaker,
		logger:  logger,
	}
}

// Generate implements Generator. Calls are routed through the circuit breaker.
func (g *CircuitBreakerGenerator) Generate(ctx context.Context, req Request) (string, error) {
	text, err := g.breaker.Execute(func() (string, error) {
		return g.inner.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("backend %q circuit open: %w", g.inner.Name(), err)
		}

		return "", err
	}

	return text, nil
}

// Name implements Generator.
func (g *CircuitBreakerGenerator) Name() string { return g.inner.Name() }
