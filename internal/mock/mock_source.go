package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/resopt/internal/scheduler/source"
)

// MockJobSource is a mock implementation of the JobSource interface.
type MockJobSource struct {
	mock.Mock

	// Events is the channel returned by Jobs. Tests push events into it
	// to simulate job arrival.
	Events chan *source.JobEvent
}

// NewMockJobSource creates a MockJobSource with a buffered event channel.
func NewMockJobSource(buffer int) *MockJobSource {
	return &MockJobSource{
		Events: make(chan *source.JobEvent, buffer),
	}
}

// Type mocks the Type method.
func (m *MockJobSource) Type() source.SourceType {
	args := m.Called()
	return args.Get(0).(source.SourceType)
}

// Name mocks the Name method.
func (m *MockJobSource) Name() string {
	args := m.Called()
	return args.String(0)
}

// Start mocks the Start method.
func (m *MockJobSource) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stop mocks the Stop method.
func (m *MockJobSource) Stop() error {
	args := m.Called()
	return args.Error(0)
}

// Jobs returns the event channel.
func (m *MockJobSource) Jobs() <-chan *source.JobEvent {
	return m.Events
}

// Ack mocks the Ack method.
func (m *MockJobSource) Ack(ctx context.Context, event *source.JobEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Nack mocks the Nack method.
func (m *MockJobSource) Nack(ctx context.Context, event *source.JobEvent, reason string) error {
	args := m.Called(ctx, event, reason)
	return args.Error(0)
}

// HealthCheck mocks the HealthCheck method.
func (m *MockJobSource) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
