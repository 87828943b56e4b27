package treasury

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/audit"
	treasurymetrics "custodia/internal/treasury/metrics"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// AuditPublisher receives one event per successful state transition.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates treasury lifecycle and the primitive authorized
// operations. Withdraw, Freeze, Unfreeze, AddSigner, RemoveSigner and
// UpdateThreshold are privileged: they are called by the proposal and
// emergency engines, never exposed directly over a transport.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *treasurymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *treasurymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the signer set and threshold and persists a new treasury.
func (s *Service) Create(ctx context.Context, signers []domain.Address, threshold int) (*Treasury, error) {
	t, err := New(domain.NewTreasuryID(), signers, threshold, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "treasury already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create treasury")
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventTreasuryCreated),
		TreasuryID: t.ID,
		Signatures: len(t.Signers),
	})
	s.metrics.IncrementCreated()
	return t, nil
}

// Get returns the treasury read model.
func (s *Service) Get(ctx context.Context, id domain.TreasuryID) (*Treasury, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return t, nil
}

// Deposit credits the balance unconditionally; deposits are accepted even
// while frozen.
func (s *Service) Deposit(ctx context.Context, id domain.TreasuryID, amount int64) (*Treasury, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(*Treasury) error { return nil },
		func(t *Treasury) { t.ApplyDeposit(amount, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventDepositRecorded),
		TreasuryID: t.ID,
		Amount:     amount,
		Balance:    t.Balance,
	})
	s.metrics.IncrementDeposits()
	return t, nil
}

// WithdrawalItem is one recipient/amount pair within a withdrawal.
type WithdrawalItem struct {
	Recipient domain.Address
	Amount    int64
}

// Withdraw debits a single amount to one recipient.
func (s *Service) Withdraw(ctx context.Context, id domain.TreasuryID, amount int64, recipient domain.Address) (*Treasury, error) {
	return s.WithdrawBatch(ctx, id, []WithdrawalItem{{Recipient: recipient, Amount: amount}})
}

// WithdrawBatch debits every item or none: validation walks the whole batch
// against the running balance before any debit is applied, so a failing entry
// aborts the batch with the treasury untouched.
func (s *Service) WithdrawBatch(ctx context.Context, id domain.TreasuryID, items []WithdrawalItem) (*Treasury, error) {
	if len(items) == 0 {
		return nil, ErrInvalidAmount
	}
	now := requestcontext.Now(ctx)

	balances := make([]int64, len(items))
	t, err := s.store.Execute(ctx, id,
		func(t *Treasury) error {
			remaining := t.Balance
			for _, item := range items {
				if item.Amount <= 0 {
					return ErrInvalidAmount
				}
				if t.Frozen {
					return ErrTreasuryFrozen
				}
				if item.Amount > remaining {
					return ErrInsufficientBalance
				}
				remaining -= item.Amount
			}
			return nil
		},
		func(t *Treasury) {
			for i, item := range items {
				t.ApplyWithdraw(item.Amount, now)
				balances[i] = t.Balance
			}
		},
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	for i, item := range items {
		s.emit(ctx, audit.Event{
			Action:     string(audit.EventWithdrawalDone),
			TreasuryID: t.ID,
			Recipient:  item.Recipient,
			Amount:     item.Amount,
			Balance:    balances[i],
		})
		s.metrics.IncrementWithdrawals()
	}
	return t, nil
}

// CanExecute reports whether the accumulated signatures authorize an action
// against the treasury's current signer set and threshold.
func (s *Service) CanExecute(ctx context.Context, id domain.TreasuryID, signatures []domain.Address) (bool, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return false, wrapStoreErr(err)
	}
	return t.CanExecute(signatures), nil
}

// Freeze sets the frozen flag. The caller (emergency engine or an executed
// proposal) is responsible for having authorized the action.
func (s *Service) Freeze(ctx context.Context, id domain.TreasuryID, reason string) (*Treasury, error) {
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(*Treasury) error { return nil },
		func(t *Treasury) { t.ApplyFreeze(now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventTreasuryFrozen),
		TreasuryID: t.ID,
		Reason:     reason,
	})
	s.metrics.IncrementFreezes()
	return t, nil
}

// Unfreeze clears the frozen flag.
func (s *Service) Unfreeze(ctx context.Context, id domain.TreasuryID) (*Treasury, error) {
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(*Treasury) error { return nil },
		func(t *Treasury) { t.ApplyUnfreeze(now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventTreasuryUnfrozen),
		TreasuryID: t.ID,
	})
	return t, nil
}

// AddSigner authorizes a new signer address.
func (s *Service) AddSigner(ctx context.Context, id domain.TreasuryID, addr domain.Address) (*Treasury, error) {
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(t *Treasury) error { return t.CanAddSigner(addr) },
		func(t *Treasury) { t.ApplyAddSigner(addr, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventSignerAdded),
		TreasuryID: t.ID,
		Recipient:  addr,
		Signatures: len(t.Signers),
	})
	return t, nil
}

// RemoveSigner revokes a signer. The threshold auto-lowers if the removal
// drops the signer count below it.
func (s *Service) RemoveSigner(ctx context.Context, id domain.TreasuryID, addr domain.Address) (*Treasury, error) {
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(t *Treasury) error { return t.CanRemoveSigner(addr) },
		func(t *Treasury) { t.ApplyRemoveSigner(addr, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventSignerRemoved),
		TreasuryID: t.ID,
		Recipient:  addr,
		Signatures: len(t.Signers),
	})
	return t, nil
}

// UpdateThreshold sets a new approval threshold.
func (s *Service) UpdateThreshold(ctx context.Context, id domain.TreasuryID, newThreshold int) (*Treasury, error) {
	now := requestcontext.Now(ctx)
	t, err := s.store.Execute(ctx, id,
		func(t *Treasury) error { return t.CanUpdateThreshold(newThreshold) },
		func(t *Treasury) { t.ApplyUpdateThreshold(newThreshold, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventThresholdUpdated),
		TreasuryID: t.ID,
		Signatures: t.Threshold,
	})
	return t, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if event.Actor.IsZero() {
		event.Actor = requestcontext.Actor(ctx)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"treasury_id", event.TreasuryID,
			"error", err,
		)
	}
}

func wrapStoreErr(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "treasury not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "treasury store failure")
}
