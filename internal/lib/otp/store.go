package otp

import (
	"context"
	"sync"
)

// Store persists challenges keyed by subject id.
//
// Implementations only need plain keyed access; atomicity of the verify
// read-modify-write is the Manager's job. A nil *Challenge with a nil error
// from Get means "no active challenge".
type Store interface {
	Get(ctx context.Context, subjectID string) (*Challenge, error)
	Put(ctx context.Context, subjectID string, challenge Challenge) error
	Delete(ctx context.Context, subjectID string) error
}

// MemoryStore keeps challenges in process memory. Suitable for a
// single-instance deployment and for tests.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]Challenge
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[string]Challenge)}
}

func (s *MemoryStore) Get(_ context.Context, subjectID string) (*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.challenges[subjectID]
	if !ok {
		return nil, nil
	}
	return &challenge, nil
}

func (s *MemoryStore) Put(_ context.Context, subjectID string, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[subjectID] = challenge
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, subjectID)
	return nil
}
