package services

import (
	"context"
	"sync"
)

// MockAgent is a mock implementation of AgentService for testing
type MockAgent struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	NextActionFunc   func(ctx context.Context, messages []ChatMessage) (string, error)
	IsModelReadyFunc func(ctx context.Context, modelName string) (bool, error)

	// Script is consumed one entry per NextAction call when NextActionFunc
	// is unset; past the end the mock keeps repeating the last entry.
	Script []string

	// Track calls for testing
	InitModelCalls  []string
	NextActionCalls [][]ChatMessage

	mu sync.Mutex // protects all fields above
}

var _ AgentService = (*MockAgent)(nil)

// NewMockAgent creates a new mock agent service
func NewMockAgent(script ...string) *MockAgent {
	return &MockAgent{Script: script}
}

// InitModel mocks model initialization
func (m *MockAgent) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// NextAction mocks turn generation
func (m *MockAgent) NextAction(ctx context.Context, messages []ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NextActionCalls = append(m.NextActionCalls, messages)
	if m.NextActionFunc != nil {
		return m.NextActionFunc(ctx, messages)
	}

	if len(m.Script) == 0 {
		return "Let me think about that.", nil
	}
	idx := len(m.NextActionCalls) - 1
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	return m.Script[idx], nil
}

// IsModelReady mocks readiness checks
func (m *MockAgent) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}
