package emergency

import (
	"context"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Store persists emergency configs, at most one per treasury. Execute runs
// validate and mutate under the store's per-config serialization.
type Store interface {
	Create(ctx context.Context, cfg *Config) error
	FindByTreasury(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error)
	Execute(ctx context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error)
}

// InMemory keeps emergency configs in process memory.
type InMemory struct {
	mu      sync.RWMutex
	configs map[domain.TreasuryID]*Config
}

func NewInMemory() *InMemory {
	return &InMemory{configs: make(map[domain.TreasuryID]*Config)}
}

func (s *InMemory) Create(_ context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[cfg.TreasuryID]; ok {
		return sentinel.ErrConflict
	}
	s.configs[cfg.TreasuryID] = cfg.Clone()
	return nil
}

func (s *InMemory) FindByTreasury(_ context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[treasuryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cfg.Clone(), nil
}

func (s *InMemory) Execute(_ context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error) {
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
