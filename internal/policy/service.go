package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/internal/audit"
	policymetrics "custodia/internal/policy/metrics"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// AuditPublisher receives one event per successful state transition and per
// denial record (spending exceeded, whitelist violation, period reset).
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates policy configuration and withdrawal validation. A
// treasury with no stored policy is unrestricted: validation passes, the
// time-lock is zero, and spend recording is a no-op.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *policymetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *policymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure validates and stores the treasury's policy config, replacing any
// previous one. Spending bookkeeping restarts from zero.
func (s *Service) Configure(ctx context.Context, treasuryID domain.TreasuryID, cfg Config) (*Config, error) {
	stored, err := New(domain.NewPolicyID(), treasuryID, cfg, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, stored); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save policy config")
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventPolicyUpdated),
		TreasuryID: treasuryID,
	})
	s.metrics.IncrementUpdates()
	return stored, nil
}

// Get returns the treasury's policy config.
func (s *Service) Get(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	cfg, err := s.store.FindByTreasury(ctx, treasuryID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return cfg, nil
}

// ValidateWithdrawal evaluates every enabled sub-policy against a prospective
// withdrawal and reports whether it is allowed. The spending window is rolled
// forward first when elapsed; nothing else mutates, so repeated calls with
// the same arguments and no intervening RecordSpending agree.
func (s *Service) ValidateWithdrawal(ctx context.Context, treasuryID domain.TreasuryID, recipient domain.Address, amount int64, category domain.Category, signatureCount int) (bool, error) {
	now := requestcontext.Now(ctx)

	var reset bool
	cfg, err := s.store.Execute(ctx, treasuryID,
		func(*Config) error { return nil },
		func(cfg *Config) { reset = cfg.ResetSpendingIfElapsed(now) },
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, wrapStoreErr(err)
	}
	if reset {
		s.emitSpendingReset(ctx, treasuryID)
	}

	s.metrics.IncrementValidations()
	violation := cfg.EvaluateWithdrawal(recipient, amount, category, signatureCount, now)
	if violation == ViolationNone {
		return true, nil
	}

	s.metrics.IncrementDenials(string(violation))
	switch violation {
	case ViolationSpendingLimit:
		s.emit(ctx, audit.Event{
			Action:     string(audit.EventSpendingLimitExceeded),
			TreasuryID: treasuryID,
			Recipient:  recipient,
			Amount:     amount,
		})
	case ViolationWhitelist:
		s.emit(ctx, audit.Event{
			Action:     string(audit.EventWhitelistViolation),
			TreasuryID: treasuryID,
			Recipient:  recipient,
			Amount:     amount,
		})
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "withdrawal denied by policy",
			"request_id", requestcontext.RequestID(ctx),
			"treasury_id", treasuryID,
			"sub_policy", string(violation),
			"amount", amount,
		)
	}
	return false, nil
}

// RecordSpending counts an executed withdrawal against the spending window.
// Callers invoke this explicitly after a validated withdrawal; validation
// never auto-records.
func (s *Service) RecordSpending(ctx context.Context, treasuryID domain.TreasuryID, amount int64) error {
	now := requestcontext.Now(ctx)

	var reset bool
	_, err := s.store.Execute(ctx, treasuryID,
		func(*Config) error { return nil },
		func(cfg *Config) {
			reset = cfg.ResetSpendingIfElapsed(now)
			if cfg.Spending != nil {
				cfg.Spending.Spent += amount
			}
		},
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return wrapStoreErr(err)
	}
	if reset {
		s.emitSpendingReset(ctx, treasuryID)
	}
	return nil
}

// TimeLock returns the extra time-lock the policy imposes on a withdrawal of
// the given amount, 0 when no policy or no time-lock formula is configured.
func (s *Service) TimeLock(ctx context.Context, treasuryID domain.TreasuryID, amount int64) (time.Duration, error) {
	cfg, err := s.store.FindByTreasury(ctx, treasuryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return cfg.TimeLockFor(amount), nil
}

func (s *Service) emitSpendingReset(ctx context.Context, treasuryID domain.TreasuryID) {
	s.emit(ctx, audit.Event{
		Action:     string(audit.EventSpendingPeriodReset),
		TreasuryID: treasuryID,
	})
	s.metrics.IncrementSpendingResets()
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
		return dErrors.New(dErrors.CodeNotFound, "policy not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "policy store failure")
}
