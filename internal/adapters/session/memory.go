package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process SessionStore used when Redis is not
// configured. State is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	addresses map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{addresses: make(map[string][]string)}
}

func (s *MemoryStore) SaveAddresses(_ context.Context, userID string, addresses []string) error {
	cp := make([]string, len(addresses))
	copy(cp, addresses)
	s.mu.Lock()
	s.addresses[userID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LastAddresses(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	stored, ok := s.addresses[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	cp := make([]string, len(stored))
	copy(cp, stored)
	return cp, nil
}
