// Package mocks provides testify mocks for textpipe interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dukex/textpipe/pkg/generation"
)

// MockGenerator is a mock implementation of the generation.Generator interface.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Name() string {
	args := m.Called()

	return args.String(0)
}
