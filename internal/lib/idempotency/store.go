package idempotency

import (
	"context"
	"sync"
)

// MemoryStore is a process-wide in-memory Store. It satisfies the gate's
// atomicity contract for a single-process deployment and backs tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]State
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]State)}
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, externalRef string, state State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[externalRef]; exists {
		return false, nil
	}
	s.records[externalRef] = state
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, externalRef string) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.records[externalRef]
	return state, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, externalRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, externalRef)
	return nil
}
