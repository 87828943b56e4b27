package emergency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
)

var (
	guard1 = domain.Address("guardian-1")
	guard2 = domain.Address("guardian-2")
	guard3 = domain.Address("guardian-3")
	other  = domain.Address("outsider")
)

func newTestConfig(t *testing.T, signers []domain.Address, threshold int) *Config {
	t.Helper()
	cfg, err := New(domain.NewEmergencyID(), domain.NewTreasuryID(), signers, threshold, time.Hour, time.Now())
	require.NoError(t, err)
	return cfg
}

func TestMinThreshold(t *testing.T) {
	tests := []struct {
		signers int
		want    int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 4},
		{6, 4},
		{9, 6},
		{10, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinThreshold(tt.signers), "signers=%d", tt.signers)
	}
}

func TestNewConfig(t *testing.T) {
	now := time.Now()
	guardians := []domain.Address{guard1, guard2, guard3}

	tests := []struct {
		name      string
		signers   []domain.Address
		threshold int
		wantErr   error
	}{
		{"valid at the floor", guardians, 2, nil},
		{"valid above the floor", guardians, 3, nil},
		{"below the two-thirds floor", guardians, 1, ErrInvalidEmergencyThreshold},
		{"above signer count", guardians, 4, ErrInvalidEmergencyThreshold},
		{"no signers", nil, 1, ErrInvalidSignerCount},
		{"duplicate signers", []domain.Address{guard1, guard1}, 2, ErrDuplicateSigner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(domain.NewEmergencyID(), domain.NewTreasuryID(), tt.signers, tt.threshold, 0, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, cfg.InEmergency)
			assert.Equal(t, DefaultCooldown, cfg.Cooldown, "zero cooldown falls back to the default")
		})
	}
}

func TestVerifySignatures(t *testing.T) {
	cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)

	tests := []struct {
		name       string
		signatures []domain.Address
		wantErr    error
	}{
		{"threshold met", []domain.Address{guard1, guard2}, nil},
		{"all signers", []domain.Address{guard1, guard2, guard3}, nil},
		{"below threshold", []domain.Address{guard1}, ErrEmergencyThresholdNotMet},
		{"duplicates are discounted", []domain.Address{guard1, guard1}, ErrEmergencyThresholdNotMet},
		{"non-signer rejected outright", []domain.Address{guard1, other}, ErrNotEmergencySigner},
		{"empty", nil, ErrEmergencyThresholdNotMet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.VerifySignatures(tt.signatures)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFreezeAndTrigger(t *testing.T) {
	now := time.Now()

	t.Run("freeze refreshes the cooldown clock", func(t *testing.T) {
		cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)
		cfg.ApplyFreeze(guard1, "breach", 2, now)
		assert.True(t, cfg.InEmergency)
		assert.Equal(t, now, cfg.TriggeredAt)

		later := now.Add(30 * time.Minute)
		cfg.ApplyFreeze(guard1, "still under review", 2, later)
		assert.Equal(t, later, cfg.TriggeredAt)
		assert.Len(t, cfg.Log, 2)
	})

	t.Run("trigger rejected while in emergency", func(t *testing.T) {
		cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)
		require.NoError(t, cfg.CanTrigger())
		cfg.ApplyTrigger(guard1, "suspected key compromise", 2, now)
		require.ErrorIs(t, cfg.CanTrigger(), ErrAlreadyInEmergency)
	})
}

func TestCanUnfreeze(t *testing.T) {
	now := time.Now()
	cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)

	require.ErrorIs(t, cfg.CanUnfreeze(now), ErrNotInEmergency)

	cfg.ApplyFreeze(guard1, "breach", 2, now)
	require.ErrorIs(t, cfg.CanUnfreeze(now.Add(30*time.Minute)), ErrCooldownNotExpired)
	require.NoError(t, cfg.CanUnfreeze(now.Add(2*time.Hour)))

	cfg.ApplyUnfreeze(guard1, 2, now.Add(2*time.Hour))
	assert.False(t, cfg.InEmergency)
}

func TestSignerRemovalAutoLowersThreshold(t *testing.T) {
	now := time.Now()
	cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 3)

	require.NoError(t, cfg.CanRemoveSigner(guard3))
	cfg.ApplyRemoveSigner(guard3, guard1, now)

	// The threshold follows the signer count down even though 2-of-2 already
	// satisfies the floor and 2-of-3 would not have been creatable.
	assert.Equal(t, 2, cfg.Threshold)
	assert.Len(t, cfg.Signers, 2)

	cfg.ApplyRemoveSigner(guard2, guard1, now)
	assert.Equal(t, 1, cfg.Threshold)
	require.ErrorIs(t, cfg.CanRemoveSigner(guard1), ErrCannotRemoveLastSigner)
}

func TestUpdateThresholdReEnforcesFloor(t *testing.T) {
	cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)

	require.ErrorIs(t, cfg.CanUpdateThreshold(1), ErrInvalidEmergencyThreshold)
	require.ErrorIs(t, cfg.CanUpdateThreshold(4), ErrInvalidEmergencyThreshold)
	require.NoError(t, cfg.CanUpdateThreshold(3))

	cfg.ApplyUpdateThreshold(3, guard1, time.Now())
	assert.Equal(t, 3, cfg.Threshold)
}

func TestSignerAdd(t *testing.T) {
	cfg := newTestConfig(t, []domain.Address{guard1, guard2, guard3}, 2)

	require.ErrorIs(t, cfg.CanAddSigner(guard1), ErrSignerAlreadyExists)
	require.NoError(t, cfg.CanAddSigner(other))
	cfg.ApplyAddSigner(other, guard1, time.Now())
	assert.True(t, cfg.IsSigner(other))
	// Adding a signer leaves the threshold as-is.
	assert.Equal(t, 2, cfg.Threshold)
}

func TestConfigClone(t *testing.T) {
	cfg := newTestConfig(t, []domain.Address{guard1, guard2}, 2)
	cp := cfg.Clone()
	cp.ApplyAddSigner(other, guard1, time.Now())

	assert.False(t, cfg.IsSigner(other))
	assert.Empty(t, cfg.Log)
}
