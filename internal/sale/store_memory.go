package sale

import (
	"context"
	"sync"

	"mintgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	purchases []Purchase
	totals    Totals
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SavePurchase(_ context.Context, p Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, p)
	return nil
}

func (s *InMemoryStore) ListPurchases(_ context.Context) ([]Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Purchase{}, s.purchases...), nil
}

func (s *InMemoryStore) Totals(_ context.Context) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals, nil
}

func (s *InMemoryStore) AddTotals(_ context.Context, value, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals.TotalRaised += value
	s.totals.TotalIssued += amount
	return nil
}

// InMemoryIdempotencyStore fences payment references without Redis.
type InMemoryIdempotencyStore struct {
	mu   sync.Mutex
	refs map[string]bool
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{refs: make(map[string]bool)}
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[ref] {
		return sentinel.ErrConflict
	}
	s.refs[ref] = true
	return nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refs, ref)
	return nil
}
