package emergency_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/audit"
	"custodia/internal/emergency"
	"custodia/internal/treasury"
	"custodia/pkg/domain"
	"custodia/pkg/testutil"
)

var (
	alice  = domain.Address("alice")
	guard1 = domain.Address("guardian-1")
	guard2 = domain.Address("guardian-2")
	guard3 = domain.Address("guardian-3")

	baseNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	emergencies *emergency.Service
	treasuries  *treasury.Service
	events      *audit.InMemoryStore
	treasuryID  domain.TreasuryID
	ctx         context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := testutil.Context(alice, baseNow)

	events := audit.NewInMemoryStore()
	treasuries := treasury.NewService(treasury.NewInMemory())
	tr, err := treasuries.Create(ctx, []domain.Address{alice}, 1)
	require.NoError(t, err)
	_, err = treasuries.Deposit(ctx, tr.ID, 1000)
	require.NoError(t, err)

	svc := emergency.NewService(emergency.NewInMemory(), treasuries,
		emergency.WithAuditPublisher(audit.NewPublisher(events)),
		emergency.WithCooldown(time.Hour),
	)
	return &fixture{
		emergencies: svc,
		treasuries:  treasuries,
		events:      events,
		treasuryID:  tr.ID,
		ctx:         ctx,
	}
}

func (f *fixture) configure(t *testing.T) *emergency.Config {
	t.Helper()
	cfg, err := f.emergencies.Create(f.ctx, f.treasuryID, []domain.Address{guard1, guard2, guard3}, 2)
	require.NoError(t, err)
	return cfg
}

func (f *fixture) at(offset time.Duration) context.Context {
	return testutil.Context(alice, baseNow.Add(offset))
}

func TestCreateConfig(t *testing.T) {
	f := newFixture(t)

	_, err := f.emergencies.Create(f.ctx, f.treasuryID, []domain.Address{guard1, guard2, guard3}, 1)
	require.ErrorIs(t, err, emergency.ErrInvalidEmergencyThreshold)

	cfg := f.configure(t)
	assert.Equal(t, 2, cfg.Threshold)
	assert.Equal(t, time.Hour, cfg.Cooldown)

	// One config per treasury.
	_, err = f.emergencies.Create(f.ctx, f.treasuryID, []domain.Address{guard1}, 1)
	require.Error(t, err)

	// The treasury must exist.
	_, err = f.emergencies.Create(f.ctx, domain.NewTreasuryID(), []domain.Address{guard1}, 1)
	require.Error(t, err)
}

func TestFreezeUnfreezeCycle(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	_, err := f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1})
	require.ErrorIs(t, err, emergency.ErrEmergencyThresholdNotMet)

	cfg, err := f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1, guard2})
	require.NoError(t, err)
	assert.True(t, cfg.InEmergency)

	tr, err := f.treasuries.Get(f.ctx, f.treasuryID)
	require.NoError(t, err)
	assert.True(t, tr.Frozen)

	// The cooldown holds the freeze in place.
	_, err = f.emergencies.Unfreeze(f.at(30*time.Minute), f.treasuryID, []domain.Address{guard1, guard2})
	require.ErrorIs(t, err, emergency.ErrCooldownNotExpired)

	cfg, err = f.emergencies.Unfreeze(f.at(2*time.Hour), f.treasuryID, []domain.Address{guard1, guard2})
	require.NoError(t, err)
	assert.False(t, cfg.InEmergency)

	tr, err = f.treasuries.Get(f.ctx, f.treasuryID)
	require.NoError(t, err)
	assert.False(t, tr.Frozen)
}

func TestFreezeIdempotentRefreshesCooldown(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	_, err := f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1, guard2})
	require.NoError(t, err)

	// A second freeze 45 minutes in restarts the clock, so an unfreeze that
	// would have cleared the first freeze is still in cooldown.
	_, err = f.emergencies.Freeze(f.at(45*time.Minute), f.treasuryID, "extended review", []domain.Address{guard1, guard2})
	require.NoError(t, err)

	_, err = f.emergencies.Unfreeze(f.at(90*time.Minute), f.treasuryID, []domain.Address{guard1, guard2})
	require.ErrorIs(t, err, emergency.ErrCooldownNotExpired)

	_, err = f.emergencies.Unfreeze(f.at(3*time.Hour), f.treasuryID, []domain.Address{guard1, guard2})
	require.NoError(t, err)
}

func TestTriggerDoesNotFreezeTreasury(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	cfg, err := f.emergencies.TriggerEmergency(f.ctx, f.treasuryID, "suspected key compromise", []domain.Address{guard2, guard3})
	require.NoError(t, err)
	assert.True(t, cfg.InEmergency)

	tr, err := f.treasuries.Get(f.ctx, f.treasuryID)
	require.NoError(t, err)
	assert.False(t, tr.Frozen, "triggering flags emergency mode without halting the treasury")

	_, err = f.emergencies.TriggerEmergency(f.ctx, f.treasuryID, "again", []domain.Address{guard2, guard3})
	require.ErrorIs(t, err, emergency.ErrAlreadyInEmergency)
}

func TestFreezeRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	_, err := f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1, alice})
	require.ErrorIs(t, err, emergency.ErrNotEmergencySigner)

	_, err = f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1, guard1})
	require.ErrorIs(t, err, emergency.ErrEmergencyThresholdNotMet)
}

func TestSignerLifecycle(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	dave := domain.Address("guardian-4")
	cfg, err := f.emergencies.AddSigner(f.ctx, f.treasuryID, dave)
	require.NoError(t, err)
	assert.True(t, cfg.IsSigner(dave))

	_, err = f.emergencies.AddSigner(f.ctx, f.treasuryID, dave)
	require.ErrorIs(t, err, emergency.ErrSignerAlreadyExists)

	cfg, err = f.emergencies.RemoveSigner(f.ctx, f.treasuryID, dave)
	require.NoError(t, err)
	assert.False(t, cfg.IsSigner(dave))

	_, err = f.emergencies.RemoveSigner(f.ctx, f.treasuryID, dave)
	require.ErrorIs(t, err, emergency.ErrSignerNotFound)

	cfg, err = f.emergencies.UpdateThreshold(f.ctx, f.treasuryID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threshold)

	_, err = f.emergencies.UpdateThreshold(f.ctx, f.treasuryID, 1)
	require.ErrorIs(t, err, emergency.ErrInvalidEmergencyThreshold)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	_, err := f.emergencies.Freeze(f.ctx, f.treasuryID, "breach", []domain.Address{guard1, guard2})
	require.NoError(t, err)
	_, err = f.emergencies.Unfreeze(f.at(2*time.Hour), f.treasuryID, []domain.Address{guard1, guard2})
	require.NoError(t, err)

	events, err := f.events.ListByTreasury(context.Background(), f.treasuryID)
	require.NoError(t, err)

	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, string(audit.EventEmergencyConfigured))
	assert.Contains(t, actions, string(audit.EventEmergencyFrozen))
	assert.Contains(t, actions, string(audit.EventEmergencyUnfrozen))
}
