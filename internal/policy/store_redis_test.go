//go:build integration

package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/policy"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := policy.NewRedisStore(rc.Client)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	treasuryID := domain.NewTreasuryID()
	cfg, err := policy.New(domain.NewPolicyID(), treasuryID, policy.Config{
		Spending: &policy.SpendingLimit{Period: policy.PeriodDaily, Limit: 1000},
	}, now)
	require.NoError(t, err)

	t.Run("find before save", func(t *testing.T) {
		_, err := store.FindByTreasury(ctx, treasuryID)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save and find", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, cfg))

		got, err := store.FindByTreasury(ctx, treasuryID)
		require.NoError(t, err)
		assert.Equal(t, treasuryID, got.TreasuryID)
		require.NotNil(t, got.Spending)
		assert.Equal(t, int64(1000), got.Spending.Limit)
	})

	t.Run("execute persists the mutation", func(t *testing.T) {
		_, err := store.Execute(ctx, treasuryID,
			func(*policy.Config) error { return nil },
			func(cfg *policy.Config) { cfg.Spending.Spent += 250 },
		)
		require.NoError(t, err)

		got, err := store.FindByTreasury(ctx, treasuryID)
		require.NoError(t, err)
		assert.Equal(t, int64(250), got.Spending.Spent)
	})

	t.Run("execute surfaces validation errors", func(t *testing.T) {
		wantErr := policy.ErrInvalidPolicyConfig
		_, err := store.Execute(ctx, treasuryID,
			func(*policy.Config) error { return wantErr },
			func(*policy.Config) {},
		)
		require.ErrorIs(t, err, wantErr)
	})

	t.Run("save replaces", func(t *testing.T) {
		replacement, err := policy.New(domain.NewPolicyID(), treasuryID, policy.Config{
			TimeLock: &policy.TimeLockFormula{Base: time.Minute, Divisor: 100},
		}, now)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, replacement))

		got, err := store.FindByTreasury(ctx, treasuryID)
		require.NoError(t, err)
		assert.Nil(t, got.Spending)
		require.NotNil(t, got.TimeLock)
	})
}
