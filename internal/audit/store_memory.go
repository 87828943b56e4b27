package audit

import (
	"context"
	"sync"

	"custodia/pkg/domain"
)

// InMemoryStore keeps audit events in process memory. Used by unit tests and
// by deployments without a configured Postgres backend.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.TreasuryID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.TreasuryID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TreasuryID] = append(s.events[event.TreasuryID], event)
	return nil
}

func (s *InMemoryStore) ListByTreasury(_ context.Context, treasuryID domain.TreasuryID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[treasuryID]...), nil
}
