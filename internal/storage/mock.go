package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	episodes  map[uuid.UUID][]byte
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		episodes: make(map[uuid.UUID][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveEpisode stores a JSON copy so callers can't mutate saved state through
// shared pointers, matching Redis round-trip behavior.
func (m *MockStorage) SaveEpisode(ctx context.Context, es *state.EpisodeState) error {
	data, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("failed to marshal episode: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes[es.ID] = data
	return nil
}

func (m *MockStorage) LoadEpisode(ctx context.Context, id uuid.UUID) (*state.EpisodeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.episodes[id]
	if !ok {
		return nil, nil
	}

	var es state.EpisodeState
	if err := json.Unmarshal(data, &es); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episode: %w", err)
	}
	return &es, nil
}

func (m *MockStorage) DeleteEpisode(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.episodes, id)
	return nil
}

// MockArchiver records archived episodes in memory for testing
type MockArchiver struct {
	mu       sync.Mutex
	Episodes []*state.EpisodeState
}

var _ Archiver = (*MockArchiver)(nil)

func NewMockArchiver() *MockArchiver {
	return &MockArchiver{}
}

func (m *MockArchiver) Store(ctx context.Context, es *state.EpisodeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Episodes = append(m.Episodes, es)
	return nil
}

func (m *MockArchiver) Close() error {
	return nil
}
