package treasury

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
)

var (
	alice = domain.Address("alice")
	bob   = domain.Address("bob")
	carol = domain.Address("carol")
	dave  = domain.Address("dave")
)

func newTestTreasury(t *testing.T, signers []domain.Address, threshold int) *Treasury {
	t.Helper()
	tr, err := New(domain.NewTreasuryID(), signers, threshold, time.Now())
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		signers   []domain.Address
		threshold int
		wantErr   error
	}{
		{"valid", []domain.Address{alice, bob, carol}, 2, nil},
		{"single signer", []domain.Address{alice}, 1, nil},
		{"empty signers", nil, 1, ErrInvalidSignerCount},
		{"duplicate signer", []domain.Address{alice, alice}, 1, ErrDuplicateSigner},
		{"threshold zero", []domain.Address{alice, bob}, 0, ErrInvalidThreshold},
		{"threshold above signer count", []domain.Address{alice, bob}, 3, ErrInvalidThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(domain.NewTreasuryID(), tt.signers, tt.threshold, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.threshold, tr.Threshold)
			assert.Equal(t, int64(0), tr.Balance)
			assert.False(t, tr.Frozen)
			assert.LessOrEqual(t, tr.Threshold, len(tr.Signers))
		})
	}
}

func TestCanExecute(t *testing.T) {
	tr := newTestTreasury(t, []domain.Address{alice, bob, carol}, 2)

	tests := []struct {
		name       string
		signatures []domain.Address
		frozen     bool
		want       bool
	}{
		{"threshold met", []domain.Address{bob, carol}, false, true},
		{"all signers", []domain.Address{alice, bob, carol}, false, true},
		{"below threshold", []domain.Address{alice}, false, false},
		{"duplicate signatures do not count", []domain.Address{alice, alice}, false, false},
		{"non-signer invalidates", []domain.Address{alice, dave}, false, false},
		{"frozen blocks execution", []domain.Address{alice, bob}, true, false},
		{"no signatures", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr.Frozen = tt.frozen
			assert.Equal(t, tt.want, tr.CanExecute(tt.signatures))
			tr.Frozen = false
		})
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	tr := newTestTreasury(t, []domain.Address{alice, bob}, 2)
	now := time.Now()

	tr.ApplyDeposit(5000, now)
	require.Equal(t, int64(5000), tr.Balance)

	prior := tr.Balance
	tr.ApplyDeposit(1200, now)
	require.NoError(t, tr.CanWithdraw(1200))
	tr.ApplyWithdraw(1200, now)

	assert.Equal(t, prior, tr.Balance)
	assert.Equal(t, int64(6200), tr.TotalDeposited)
	assert.Equal(t, int64(1200), tr.TotalWithdrawn)
}

func TestCanWithdraw(t *testing.T) {
	tr := newTestTreasury(t, []domain.Address{alice, bob}, 1)
	tr.ApplyDeposit(100, time.Now())

	require.ErrorIs(t, tr.CanWithdraw(0), ErrInvalidAmount)
	require.ErrorIs(t, tr.CanWithdraw(-5), ErrInvalidAmount)
	require.ErrorIs(t, tr.CanWithdraw(101), ErrInsufficientBalance)

	tr.ApplyFreeze(time.Now())
	require.ErrorIs(t, tr.CanWithdraw(50), ErrTreasuryFrozen)

	tr.ApplyUnfreeze(time.Now())
	require.NoError(t, tr.CanWithdraw(100))
}

func TestSignerManagement(t *testing.T) {
	now := time.Now()

	t.Run("add rejects duplicates", func(t *testing.T) {
		tr := newTestTreasury(t, []domain.Address{alice, bob}, 2)
		require.ErrorIs(t, tr.CanAddSigner(alice), ErrSignerAlreadyExists)
		require.NoError(t, tr.CanAddSigner(carol))
		tr.ApplyAddSigner(carol, now)
		assert.True(t, tr.IsSigner(carol))
	})

	t.Run("remove auto-lowers threshold", func(t *testing.T) {
		tr := newTestTreasury(t, []domain.Address{alice, bob}, 2)
		require.NoError(t, tr.CanRemoveSigner(bob))
		tr.ApplyRemoveSigner(bob, now)
		assert.Equal(t, 1, tr.Threshold)
		assert.LessOrEqual(t, tr.Threshold, len(tr.Signers))
	})

	t.Run("remove unknown signer", func(t *testing.T) {
		tr := newTestTreasury(t, []domain.Address{alice, bob}, 1)
		require.ErrorIs(t, tr.CanRemoveSigner(dave), ErrSignerNotFound)
	})

	t.Run("cannot remove last signer", func(t *testing.T) {
		tr := newTestTreasury(t, []domain.Address{alice, bob}, 2)
		tr.ApplyRemoveSigner(bob, now)
		require.ErrorIs(t, tr.CanRemoveSigner(alice), ErrCannotRemoveLastSigner)
	})

	t.Run("threshold update bounds", func(t *testing.T) {
		tr := newTestTreasury(t, []domain.Address{alice, bob, carol}, 2)
		require.ErrorIs(t, tr.CanUpdateThreshold(0), ErrInvalidThreshold)
		require.ErrorIs(t, tr.CanUpdateThreshold(4), ErrInvalidThreshold)
		require.NoError(t, tr.CanUpdateThreshold(3))
		tr.ApplyUpdateThreshold(3, now)
		assert.Equal(t, 3, tr.Threshold)
	})
}

func TestClone(t *testing.T) {
	tr := newTestTreasury(t, []domain.Address{alice, bob}, 1)
	cp := tr.Clone()
	cp.ApplyAddSigner(carol, time.Now())
	assert.False(t, tr.IsSigner(carol))
}
