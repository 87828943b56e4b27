package emergency

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/internal/audit"
	emergencymetrics "custodia/internal/emergency/metrics"
	"custodia/internal/treasury"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// TreasuryService is the slice of the treasury core the emergency engine
// calls directly, bypassing the proposal engine.
type TreasuryService interface {
	Get(ctx context.Context, id domain.TreasuryID) (*treasury.Treasury, error)
	Freeze(ctx context.Context, id domain.TreasuryID, reason string) (*treasury.Treasury, error)
	Unfreeze(ctx context.Context, id domain.TreasuryID) (*treasury.Treasury, error)
}

// AuditPublisher receives one event per successful state transition.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the emergency override path.
type Service struct {
	store          Store
	treasuries     TreasuryService
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *emergencymetrics.Metrics
	cooldown       time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *emergencymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCooldown sets the cooldown applied to configs created without one.
func WithCooldown(cooldown time.Duration) Option {
	return func(s *Service) { s.cooldown = cooldown }
}

func NewService(store Store, treasuries TreasuryService, opts ...Option) *Service {
	s := &Service{store: store, treasuries: treasuries, cooldown: DefaultCooldown}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the signer set against the two-thirds floor and attaches
// an emergency config to the treasury. One config per treasury.
func (s *Service) Create(ctx context.Context, treasuryID domain.TreasuryID, signers []domain.Address, threshold int) (*Config, error) {
	if _, err := s.treasuries.Get(ctx, treasuryID); err != nil {
		return nil, err
	}

	cfg, err := New(domain.NewEmergencyID(), treasuryID, signers, threshold, s.cooldown, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, cfg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "emergency config already exists for treasury")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create emergency config")
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencyConfigured),
		TreasuryID: treasuryID,
		Signatures: threshold,
	})
	s.metrics.IncrementConfigured()
	return cfg, nil
}

// Get returns the treasury's emergency config.
func (s *Service) Get(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	cfg, err := s.store.FindByTreasury(ctx, treasuryID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return cfg, nil
}

// Freeze halts the treasury under emergency authority. Idempotent at the
// treasury level; each call refreshes the cooldown clock. The treasury
// freeze runs inside the config's critical section, so the in-emergency flag
// only flips once the treasury is actually frozen.
func (s *Service) Freeze(ctx context.Context, treasuryID domain.TreasuryID, reason string, signatures []domain.Address) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error {
			if err := cfg.VerifySignatures(signatures); err != nil {
				return err
			}
			_, err := s.treasuries.Freeze(ctx, treasuryID, reason)
			return err
		},
		func(cfg *Config) { cfg.ApplyFreeze(actor, reason, len(signatures), now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencyFrozen),
		TreasuryID: treasuryID,
		Reason:     reason,
		Signatures: len(signatures),
	})
	s.metrics.IncrementFreezes()
	return cfg, nil
}

// TriggerEmergency flags emergency mode without freezing the treasury.
// Fails when already in emergency; freezing remains a separate action.
func (s *Service) TriggerEmergency(ctx context.Context, treasuryID domain.TreasuryID, reason string, signatures []domain.Address) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error {
			if err := cfg.VerifySignatures(signatures); err != nil {
				return err
			}
			return cfg.CanTrigger()
		},
		func(cfg *Config) { cfg.ApplyTrigger(actor, reason, len(signatures), now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencyTriggered),
		TreasuryID: treasuryID,
		Reason:     reason,
		Signatures: len(signatures),
	})
	s.metrics.IncrementTriggers()
	return cfg, nil
}

// Unfreeze lifts the emergency once the cooldown has expired, with a fresh
// threshold of emergency signatures.
func (s *Service) Unfreeze(ctx context.Context, treasuryID domain.TreasuryID, signatures []domain.Address) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error {
			if err := cfg.VerifySignatures(signatures); err != nil {
				return err
			}
			if err := cfg.CanUnfreeze(now); err != nil {
				return err
			}
			_, err := s.treasuries.Unfreeze(ctx, treasuryID)
			return err
		},
		func(cfg *Config) { cfg.ApplyUnfreeze(actor, len(signatures), now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencyUnfrozen),
		TreasuryID: treasuryID,
		Signatures: len(signatures),
	})
	s.metrics.IncrementUnfreezes()
	return cfg, nil
}

// AddSigner authorizes a new emergency signer.
func (s *Service) AddSigner(ctx context.Context, treasuryID domain.TreasuryID, addr domain.Address) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error { return cfg.CanAddSigner(addr) },
		func(cfg *Config) { cfg.ApplyAddSigner(addr, actor, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencySignerAdded),
		TreasuryID: treasuryID,
		Recipient:  addr,
		Signatures: len(cfg.Signers),
	})
	return cfg, nil
}

// RemoveSigner revokes an emergency signer. The threshold auto-lowers to the
// new signer count when needed; the two-thirds floor is only re-enforced by
// an explicit threshold update.
func (s *Service) RemoveSigner(ctx context.Context, treasuryID domain.TreasuryID, addr domain.Address) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error { return cfg.CanRemoveSigner(addr) },
		func(cfg *Config) { cfg.ApplyRemoveSigner(addr, actor, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencySignerRemoved),
		TreasuryID: treasuryID,
		Recipient:  addr,
		Signatures: len(cfg.Signers),
	})
	return cfg, nil
}

// UpdateThreshold sets a new emergency threshold, re-enforcing the
// two-thirds floor.
func (s *Service) UpdateThreshold(ctx context.Context, treasuryID domain.TreasuryID, newThreshold int) (*Config, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	cfg, err := s.store.Execute(ctx, treasuryID,
		func(cfg *Config) error { return cfg.CanUpdateThreshold(newThreshold) },
		func(cfg *Config) { cfg.ApplyUpdateThreshold(newThreshold, actor, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventEmergencyThresholdUpdated),
		TreasuryID: treasuryID,
		Signatures: newThreshold,
	})
	return cfg, nil
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
		return dErrors.New(dErrors.CodeNotFound, "emergency config not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "emergency store failure")
}
