package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/audit"
	"custodia/internal/policy"
	"custodia/pkg/domain"
	"custodia/pkg/testutil"
)

var (
	actor   = domain.Address("alice")
	vendor  = domain.Address("vendor-1")
	stray   = domain.Address("stray-recipient")
	baseNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

type serviceFixture struct {
	service    *policy.Service
	events     *audit.InMemoryStore
	treasuryID domain.TreasuryID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	events := audit.NewInMemoryStore()
	svc := policy.NewService(policy.NewInMemoryStore(),
		policy.WithAuditPublisher(audit.NewPublisher(events)),
	)
	return &serviceFixture{
		service:    svc,
		events:     events,
		treasuryID: domain.NewTreasuryID(),
	}
}

func (f *serviceFixture) ctx(now time.Time) context.Context {
	return testutil.Context(actor, now)
}

func (f *serviceFixture) actions(t *testing.T) []string {
	t.Helper()
	events, err := f.events.ListByTreasury(context.Background(), f.treasuryID)
	require.NoError(t, err)
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func TestServiceConfigure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	cfg, err := f.service.Configure(ctx, f.treasuryID, policy.Config{
		Spending: &policy.SpendingLimit{Period: policy.PeriodDaily, Limit: 1000, Spent: 999},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Spending.Spent, "spending bookkeeping restarts on configure")
	assert.Equal(t, baseNow, cfg.Spending.PeriodStart)

	_, err = f.service.Configure(ctx, f.treasuryID, policy.Config{
		TimeLock: &policy.TimeLockFormula{Base: time.Minute, Divisor: 0},
	})
	require.ErrorIs(t, err, policy.ErrInvalidPolicyConfig)

	assert.Equal(t, []string{string(audit.EventPolicyUpdated)}, f.actions(t))
}

func TestServiceUnconfiguredTreasuryIsUnrestricted(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	ok, err := f.service.ValidateWithdrawal(ctx, f.treasuryID, stray, 1_000_000, domain.CategoryOther, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	lock, err := f.service.TimeLock(ctx, f.treasuryID, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), lock)

	require.NoError(t, f.service.RecordSpending(ctx, f.treasuryID, 500))
}

func TestServiceSpendingWindow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	_, err := f.service.Configure(ctx, f.treasuryID, policy.Config{
		Spending: &policy.SpendingLimit{Period: policy.PeriodDaily, Limit: 1000},
	})
	require.NoError(t, err)

	ok, err := f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 500, domain.CategoryWithdrawal, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, f.service.RecordSpending(ctx, f.treasuryID, 500))

	// 500 + 600 breaches the daily limit.
	ok, err = f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 600, domain.CategoryWithdrawal, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// Validation never records: the same check repeated gives the same answer.
	ok, err = f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 500, domain.CategoryWithdrawal, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// A day later the window rolls over and the full limit is available again.
	later := f.ctx(baseNow.Add(25 * time.Hour))
	ok, err = f.service.ValidateWithdrawal(later, f.treasuryID, vendor, 600, domain.CategoryWithdrawal, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	actions := f.actions(t)
	assert.Contains(t, actions, string(audit.EventSpendingLimitExceeded))
	assert.Contains(t, actions, string(audit.EventSpendingPeriodReset))
}

func TestServiceWhitelist(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	_, err := f.service.Configure(ctx, f.treasuryID, policy.Config{
		Whitelist: &policy.Whitelist{Entries: []policy.WhitelistEntry{
			{Address: vendor, ExpiresAt: baseNow.Add(24 * time.Hour), Description: "approved vendor"},
		}},
	})
	require.NoError(t, err)

	ok, err := f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 100, domain.CategoryWithdrawal, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.ValidateWithdrawal(ctx, f.treasuryID, stray, 100, domain.CategoryWithdrawal, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// The same entry is rejected once expired.
	later := f.ctx(baseNow.Add(25 * time.Hour))
	ok, err = f.service.ValidateWithdrawal(later, f.treasuryID, vendor, 100, domain.CategoryWithdrawal, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, f.actions(t), string(audit.EventWhitelistViolation))
}

func TestServiceCategoryGateAndTiers(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	_, err := f.service.Configure(ctx, f.treasuryID, policy.Config{
		CategoryGate: &policy.CategoryGate{Allowed: []domain.Category{domain.CategoryWithdrawal}},
		Tiers: &policy.TieredThreshold{Tiers: []policy.Tier{
			{MinAmount: 1000, RequiredSignatures: 3},
		}},
	})
	require.NoError(t, err)

	ok, err := f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 100, domain.CategoryOther, 3)
	require.NoError(t, err)
	assert.False(t, ok, "category outside the gate")

	ok, err = f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 5000, domain.CategoryWithdrawal, 2)
	require.NoError(t, err)
	assert.False(t, ok, "large withdrawal below the signature tier")

	ok, err = f.service.ValidateWithdrawal(ctx, f.treasuryID, vendor, 5000, domain.CategoryWithdrawal, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServiceTimeLock(t *testing.T) {
	f := newServiceFixture(t)
	ctx := f.ctx(baseNow)

	_, err := f.service.Configure(ctx, f.treasuryID, policy.Config{
		TimeLock: &policy.TimeLockFormula{Base: time.Minute, Divisor: 100},
	})
	require.NoError(t, err)

	lock, err := f.service.TimeLock(ctx, f.treasuryID, 1050)
	require.NoError(t, err)
	assert.Equal(t, time.Minute+10*time.Second, lock)
}

func TestServiceGetNotFound(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Get(f.ctx(baseNow), f.treasuryID)
	require.Error(t, err)
}
