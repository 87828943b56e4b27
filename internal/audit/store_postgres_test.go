//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/audit"
	"custodia/pkg/domain"
	"custodia/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := audit.NewPostgresStore(pc.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	treasuryID := domain.NewTreasuryID()
	proposalID := domain.NewProposalID()

	events := []audit.Event{
		{
			Action:     string(audit.EventTreasuryCreated),
			TreasuryID: treasuryID,
			Actor:      domain.Address("alice"),
			Timestamp:  now,
			RequestID:  "req-1",
		},
		{
			Action:     string(audit.EventProposalExecuted),
			TreasuryID: treasuryID,
			ProposalID: proposalID,
			Amount:     1000,
			Signatures: 2,
			Timestamp:  now.Add(time.Second),
			RequestID:  "req-2",
		},
	}
	for _, e := range events {
		e.Category = audit.Action(e.Action).Category()
		require.NoError(t, store.Append(ctx, e))
	}

	t.Run("list by treasury in append order", func(t *testing.T) {
		got, err := store.ListByTreasury(ctx, treasuryID)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, string(audit.EventTreasuryCreated), got[0].Action)
		assert.Equal(t, domain.Address("alice"), got[0].Actor)
		assert.Equal(t, audit.CategoryCompliance, got[0].Category)

		assert.Equal(t, string(audit.EventProposalExecuted), got[1].Action)
		assert.Equal(t, proposalID, got[1].ProposalID)
		assert.Equal(t, int64(1000), got[1].Amount)
		assert.Equal(t, 2, got[1].Signatures)
	})

	t.Run("unknown treasury is empty", func(t *testing.T) {
		got, err := store.ListByTreasury(ctx, domain.NewTreasuryID())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
