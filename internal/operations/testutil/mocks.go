package testutil

import (
	"context"
	"errors"
	"sync"

	"loanmerge/internal/operations"
)

// MockStep is a configurable implementation of operations.Step
type MockStep struct {
	IDValue   string
	NameValue string

	ExecuteFunc func(ctx context.Context, state *operations.RunState) error

	mu           sync.Mutex
	ExecuteCalls int
}

// ID returns the step ID
func (m *MockStep) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStep) Name() string {
	return m.NameValue
}

// Execute runs ExecuteFunc when set and counts the call
func (m *MockStep) Execute(ctx context.Context, state *operations.RunState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStep) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// SuccessfulStep returns a step that always succeeds
func SuccessfulStep(id string) *MockStep {
	return &MockStep{IDValue: id, NameValue: id}
}

// FailingStep returns a step that fails with message
func FailingStep(id, message string) *MockStep {
	return &MockStep{
		IDValue:   id,
		NameValue: id,
		ExecuteFunc: func(context.Context, *operations.RunState) error {
			return errors.New(message)
		},
	}
}

// SkippingStep returns a step that skips with reason
func SkippingStep(id, reason string) *MockStep {
	return &MockStep{
		IDValue:   id,
		NameValue: id,
		ExecuteFunc: func(context.Context, *operations.RunState) error {
			return operations.Skip(reason)
		},
	}
}
