package generation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyGenerator struct {
	calls int
	err   error
}

func (g *flakyGenerator) Generate(_ context.Context, _ Request) (string, error) {
	g.calls++

	if g.err != nil {
		return "", g.err
	}

	return "ok", nil
}

func (g *flakyGenerator) Name() string {
	return "flaky"
}

func TestCircuitBreakerGenerator_PassesThroughSuccess(t *testing.T) {
	inner := &flakyGenerator{}
	breaker := NewCircuitBreakerGenerator(inner, CircuitBreakerConfig{}, slog.Default())

	output, err := breaker.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", output)
	assert.Equal(t, "flaky", breaker.Name())
}

func TestCircuitBreakerGenerator_OpensAfterConsecutiveFailures(t *testing.T) {
	backendErr := errors.New("backend down")
	inner := &flakyGenerator{err: backendErr}

	breaker := NewCircuitBreakerGenerator(inner, CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Minute,
	}, slog.Default())

	for range 2 {
		_, err := breaker.Generate(context.Background(), Request{Prompt: "p"})
		assert.ErrorIs(t, err, backendErr)
	}

	// Circuit is now open: the backend must not be reached again.
	callsBefore := inner.calls

	_, err := breaker.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, inner.calls)
}

func TestCircuitBreakerGenerator_RecoversAfterTimeout(t *testing.T) {
	backendErr := errors.New("backend down")
	inner := &flakyGenerator{err: backendErr}

	breaker := NewCircuitBreakerGenerator(inner, CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     20 * time.Millisecond,
	}, slog.Default())

	_, err := breaker.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, backendErr)

	// Backend recovers while the circuit is open.
	inner.err = nil

	time.Sleep(30 * time.Millisecond)

	output, err := breaker.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", output)
}
