package roles

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	members map[string]map[Role]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{members: make(map[string]map[Role]bool)}
}

func (s *InMemoryStore) Grant(_ context.Context, account string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[account] == nil {
		s.members[account] = make(map[Role]bool)
	}
	s.members[account][role] = true
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, account string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[account], role)
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, account string, role Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[account][role], nil
}
