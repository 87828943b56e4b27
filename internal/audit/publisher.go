package audit

import (
	"context"
	"time"

	"custodia/pkg/domain"
)

// Store persists audit events. Implementations: in-memory (tests), Postgres
// outbox (durable, drained to Kafka).
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and delegates
// persistence to the storage layer so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = Action(event.Action).Category()
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, treasuryID domain.TreasuryID) ([]Event, error) {
	return p.store.ListByTreasury(ctx, treasuryID)
}
