package phase

import (
	"context"
	"sync"

	"mintgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	phases []Phase
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) List(_ context.Context) ([]Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Phase{}, s.phases...), nil
}

func (s *InMemoryStore) Get(_ context.Context, index int) (Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.phases) {
		return Phase{}, sentinel.ErrNotFound
	}
	return s.phases[index], nil
}

func (s *InMemoryStore) Append(_ context.Context, p Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases = append(s.phases, p)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.phases) {
		return sentinel.ErrNotFound
	}
	s.phases = append(s.phases[:index], s.phases[index+1:]...)
	return nil
}

func (s *InMemoryStore) AddIssued(_ context.Context, index int, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.phases) {
		return sentinel.ErrNotFound
	}
	p := s.phases[index]
	if amount > p.Cap-p.Issued {
		return sentinel.ErrConflict
	}
	s.phases[index].Issued += amount
	return nil
}
