package treasury_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/audit"
	"custodia/internal/treasury"
	"custodia/pkg/domain"
	"custodia/pkg/testutil"
)

var (
	alice = domain.Address("alice")
	bob   = domain.Address("bob")
	carol = domain.Address("carol")
	recip = domain.Address("merchant-1")
)

type serviceFixture struct {
	service *treasury.Service
	events  *audit.InMemoryStore
	ctx     context.Context
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	events := audit.NewInMemoryStore()
	svc := treasury.NewService(treasury.NewInMemory(),
		treasury.WithAuditPublisher(audit.NewPublisher(events)),
	)
	return &serviceFixture{
		service: svc,
		events:  events,
		ctx:     testutil.Context(alice, time.Now()),
	}
}

func (f *serviceFixture) create(t *testing.T, threshold int) *treasury.Treasury {
	t.Helper()
	tr, err := f.service.Create(f.ctx, []domain.Address{alice, bob, carol}, threshold)
	require.NoError(t, err)
	return tr
}

func (f *serviceFixture) actions(t *testing.T, id domain.TreasuryID) []string {
	t.Helper()
	events, err := f.events.ListByTreasury(context.Background(), id)
	require.NoError(t, err)
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func TestServiceCreateAndGet(t *testing.T) {
	f := newServiceFixture(t)

	tr := f.create(t, 2)
	got, err := f.service.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)
	assert.Equal(t, 2, got.Threshold)

	assert.Equal(t, []string{string(audit.EventTreasuryCreated)}, f.actions(t, tr.ID))
}

func TestServiceGetUnknown(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Get(f.ctx, domain.NewTreasuryID())
	require.Error(t, err)
}

func TestServiceDeposit(t *testing.T) {
	f := newServiceFixture(t)
	tr := f.create(t, 2)

	got, err := f.service.Deposit(f.ctx, tr.ID, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.Balance)

	_, err = f.service.Deposit(f.ctx, tr.ID, 0)
	require.ErrorIs(t, err, treasury.ErrInvalidAmount)

	// Deposits are accepted even while frozen.
	_, err = f.service.Freeze(f.ctx, tr.ID, "incident")
	require.NoError(t, err)
	got, err = f.service.Deposit(f.ctx, tr.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(10500), got.Balance)
}

func TestServiceWithdrawBatchAllOrNothing(t *testing.T) {
	f := newServiceFixture(t)
	tr := f.create(t, 2)
	_, err := f.service.Deposit(f.ctx, tr.ID, 1000)
	require.NoError(t, err)

	// A batch whose running total exceeds the balance aborts untouched.
	_, err = f.service.WithdrawBatch(f.ctx, tr.ID, []treasury.WithdrawalItem{
		{Recipient: recip, Amount: 600},
		{Recipient: recip, Amount: 600},
	})
	require.ErrorIs(t, err, treasury.ErrInsufficientBalance)

	got, err := f.service.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Balance)

	// A batch with a non-positive entry aborts untouched.
	_, err = f.service.WithdrawBatch(f.ctx, tr.ID, []treasury.WithdrawalItem{
		{Recipient: recip, Amount: 600},
		{Recipient: recip, Amount: 0},
	})
	require.ErrorIs(t, err, treasury.ErrInvalidAmount)

	// A valid batch debits every entry and emits one event per entry.
	got, err = f.service.WithdrawBatch(f.ctx, tr.ID, []treasury.WithdrawalItem{
		{Recipient: recip, Amount: 600},
		{Recipient: recip, Amount: 400},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)
	assert.Equal(t, int64(1000), got.TotalWithdrawn)

	withdrawals := 0
	for _, action := range f.actions(t, tr.ID) {
		if action == string(audit.EventWithdrawalDone) {
			withdrawals++
		}
	}
	assert.Equal(t, 2, withdrawals)
}

func TestServiceWithdrawFrozen(t *testing.T) {
	f := newServiceFixture(t)
	tr := f.create(t, 2)
	_, err := f.service.Deposit(f.ctx, tr.ID, 1000)
	require.NoError(t, err)

	_, err = f.service.Freeze(f.ctx, tr.ID, "suspicious activity")
	require.NoError(t, err)

	_, err = f.service.Withdraw(f.ctx, tr.ID, 100, recip)
	require.ErrorIs(t, err, treasury.ErrTreasuryFrozen)

	_, err = f.service.Unfreeze(f.ctx, tr.ID)
	require.NoError(t, err)

	got, err := f.service.Withdraw(f.ctx, tr.ID, 100, recip)
	require.NoError(t, err)
	assert.Equal(t, int64(900), got.Balance)
}

func TestServiceSignerLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	tr := f.create(t, 2)

	dave := domain.Address("dave")
	got, err := f.service.AddSigner(f.ctx, tr.ID, dave)
	require.NoError(t, err)
	assert.True(t, got.IsSigner(dave))

	_, err = f.service.AddSigner(f.ctx, tr.ID, dave)
	require.ErrorIs(t, err, treasury.ErrSignerAlreadyExists)

	got, err = f.service.RemoveSigner(f.ctx, tr.ID, dave)
	require.NoError(t, err)
	assert.False(t, got.IsSigner(dave))
	assert.LessOrEqual(t, got.Threshold, len(got.Signers))

	got, err = f.service.UpdateThreshold(f.ctx, tr.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Threshold)

	_, err = f.service.UpdateThreshold(f.ctx, tr.ID, 4)
	require.ErrorIs(t, err, treasury.ErrInvalidThreshold)
}

func TestServiceCanExecute(t *testing.T) {
	f := newServiceFixture(t)
	tr := f.create(t, 2)

	ok, err := f.service.CanExecute(f.ctx, tr.ID, []domain.Address{bob, carol})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.CanExecute(f.ctx, tr.ID, []domain.Address{bob})
	require.NoError(t, err)
	assert.False(t, ok)
}
