package policy

import (
	"context"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Store persists policy configs, at most one per treasury. Execute runs a
// validate-then-mutate pair atomically against the stored config.
type Store interface {
	Save(ctx context.Context, cfg *Config) error
	FindByTreasury(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error)
	Execute(ctx context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error)
}

// InMemoryStore keeps policy configs in a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	configs map[domain.TreasuryID]*Config
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{configs: make(map[domain.TreasuryID]*Config)}
}

// Save inserts or replaces the treasury's policy config.
func (s *InMemoryStore) Save(_ context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.TreasuryID] = cfg.Clone()
	return nil
}

func (s *InMemoryStore) FindByTreasury(_ context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[treasuryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cfg.Clone(), nil
}

// Execute applies validate then mutate under the store lock so concurrent
// spend bookkeeping against the same config serializes.
func (s *InMemoryStore) Execute(_ context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[treasuryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	mutate(cfg)
	return cfg.Clone(), nil
}
