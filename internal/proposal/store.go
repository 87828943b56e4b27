package proposal

import (
	"context"
	"sort"
	"sync"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Store persists proposals. Execute runs validate and mutate under the
// store's per-proposal serialization, so concurrent sign/execute calls
// against the same proposal are ordered.
type Store interface {
	Create(ctx context.Context, p *Proposal) error
	FindByID(ctx context.Context, id domain.ProposalID) (*Proposal, error)
	ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]*Proposal, error)
	Execute(ctx context.Context, id domain.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error)
}

// InMemory keeps proposals in process memory and backs all unit tests.
type InMemory struct {
	mu        sync.RWMutex
	proposals map[domain.ProposalID]*Proposal
}

func NewInMemory() *InMemory {
	return &InMemory{proposals: make(map[domain.ProposalID]*Proposal)}
}

func (s *InMemory) Create(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ProposalID) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) ListByTreasury(_ context.Context, treasuryID domain.TreasuryID) ([]*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Proposal
	for _, p := range s.proposals {
		if p.TreasuryID == treasuryID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, id domain.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)
	return p.Clone(), nil
}
