package auth

import (
	"context"
	"sync"

	"mintgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{creds: make(map[string]Credential)}
}

func (s *InMemoryStore) Save(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Account] = cred
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, account string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[account]
	if !ok {
		return Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}
