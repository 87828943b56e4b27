package treasury

import (
	"context"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Store persists treasuries. Execute runs validate and mutate under the
// store's per-treasury serialization (mutex in memory, FOR UPDATE in
// Postgres), so a failed validation leaves the entity untouched and a
// successful mutation is applied atomically.
type Store interface {
	Create(ctx context.Context, t *Treasury) error
	FindByID(ctx context.Context, id domain.TreasuryID) (*Treasury, error)
	Execute(ctx context.Context, id domain.TreasuryID, validate func(*Treasury) error, mutate func(*Treasury)) (*Treasury, error)
}

// InMemory keeps treasuries in process memory. It favors clarity over
// performance and backs all unit tests.
type InMemory struct {
	mu         sync.RWMutex
	treasuries map[domain.TreasuryID]*Treasury
}

func NewInMemory() *InMemory {
	return &InMemory{treasuries: make(map[domain.TreasuryID]*Treasury)}
}

func (s *InMemory) Create(_ context.Context, t *Treasury) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.treasuries[t.ID]; ok {
		return sentinel.ErrConflict
	}
	s.treasuries[t.ID] = t.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.TreasuryID) (*Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.treasuries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *InMemory) Execute(_ context.Context, id domain.TreasuryID, validate func(*Treasury) error, mutate func(*Treasury)) (*Treasury, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.treasuries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	mutate(t)
	return t.Clone(), nil
}
