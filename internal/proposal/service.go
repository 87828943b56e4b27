//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

package proposal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/internal/audit"
	proposalmetrics "custodia/internal/proposal/metrics"
	"custodia/internal/treasury"
	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"

	dErrors "custodia/pkg/domain-errors"
)

// ErrPolicyViolation rejects execution when a withdrawal transaction fails
// the treasury's configured policy.
var ErrPolicyViolation = dErrors.New(dErrors.CodeForbidden, "withdrawal rejected by treasury policy")

// TreasuryService is the slice of the treasury core the proposal engine
// needs: reads for precondition checks and the privileged mutators that
// execution dispatches to.
type TreasuryService interface {
	Get(ctx context.Context, id domain.TreasuryID) (*treasury.Treasury, error)
	WithdrawBatch(ctx context.Context, id domain.TreasuryID, items []treasury.WithdrawalItem) (*treasury.Treasury, error)
	AddSigner(ctx context.Context, id domain.TreasuryID, addr domain.Address) (*treasury.Treasury, error)
	RemoveSigner(ctx context.Context, id domain.TreasuryID, addr domain.Address) (*treasury.Treasury, error)
	UpdateThreshold(ctx context.Context, id domain.TreasuryID, newThreshold int) (*treasury.Treasury, error)
}

// PolicyChecker composes the policy engine into proposal creation and
// execution. Optional: a nil checker means no policy enforcement.
type PolicyChecker interface {
	ValidateWithdrawal(ctx context.Context, treasuryID domain.TreasuryID, recipient domain.Address, amount int64, category domain.Category, signatureCount int) (bool, error)
	RecordSpending(ctx context.Context, treasuryID domain.TreasuryID, amount int64) error
	TimeLock(ctx context.Context, treasuryID domain.TreasuryID, amount int64) (time.Duration, error)
}

// AuditPublisher receives one event per successful state transition.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the proposal lifecycle against the treasury core.
type Service struct {
	store          Store
	treasuries     TreasuryService
	policy         PolicyChecker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *proposalmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *proposalmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPolicyChecker enables policy validation on withdrawal proposals and
// policy-derived time-lock extension at creation.
func WithPolicyChecker(checker PolicyChecker) Option {
	return func(s *Service) { s.policy = checker }
}

func NewService(store Store, treasuries TreasuryService, opts ...Option) *Service {
	s := &Service{store: store, treasuries: treasuries}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the creator and payload and persists a pending proposal.
// The treasury must be unfrozen and the creator one of its current signers.
// For withdrawals the policy time-lock formula extends the caller-supplied
// time-lock before the deadline is fixed.
func (s *Service) Create(ctx context.Context, treasuryID domain.TreasuryID, creator domain.Address, category domain.Category, title, description string, payload Payload, timeLock time.Duration) (*Proposal, error) {
	t, err := s.treasuries.Get(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	if t.Frozen {
		return nil, treasury.ErrTreasuryFrozen
	}
	if !t.IsSigner(creator) {
		return nil, ErrNotAuthorizedSigner
	}

	p, err := New(domain.NewProposalID(), treasuryID, creator, category, title, description, payload, timeLock, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if category == domain.CategoryWithdrawal && s.policy != nil {
		extension, err := s.policy.TimeLock(ctx, treasuryID, p.TotalAmount())
		if err != nil {
			return nil, err
		}
		p.TimeLockUntil = p.TimeLockUntil.Add(extension)
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "proposal already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventProposalCreated),
		TreasuryID: treasuryID,
		ProposalID: p.ID,
		Actor:      creator,
		Amount:     p.TotalAmount(),
	})
	s.metrics.IncrementCreated(category.String())
	return p, nil
}

// Get returns the proposal read model.
func (s *Service) Get(ctx context.Context, id domain.ProposalID) (*Proposal, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return p, nil
}

// ListByTreasury returns the treasury's proposals in creation order.
func (s *Service) ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]*Proposal, error) {
	proposals, err := s.store.ListByTreasury(ctx, treasuryID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return proposals, nil
}

// Sign appends the signer's approval. The signer must be a current treasury
// signer; membership is checked at signing time, not creation time.
func (s *Service) Sign(ctx context.Context, id domain.ProposalID, signer domain.Address) (*Proposal, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	t, err := s.treasuries.Get(ctx, current.TreasuryID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p, err := s.store.Execute(ctx, id,
		func(p *Proposal) error {
			if !t.IsSigner(signer) {
				return ErrNotAuthorizedSigner
			}
			return p.CanSign(signer)
		},
		func(p *Proposal) { p.ApplySign(signer, now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventProposalSigned),
		TreasuryID: p.TreasuryID,
		ProposalID: p.ID,
		Actor:      signer,
		Signatures: len(p.Signatures),
	})
	s.metrics.IncrementSignatures()
	return p, nil
}

// Execute re-validates everything against current treasury state and
// dispatches the category's action. The treasury-level authorization check
// runs against the signatures accumulated so far, so a signer removed after
// signing invalidates the proposal. The dispatch happens inside the store's
// per-proposal critical section: the status flips to Executed only after the
// treasury mutation succeeded, and a concurrent second call observes the
// terminal status.
func (s *Service) Execute(ctx context.Context, id domain.ProposalID) (*Proposal, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	t, err := s.treasuries.Get(ctx, current.TreasuryID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p, err := s.store.Execute(ctx, id,
		func(p *Proposal) error {
			if err := p.CanExecute(now, t.Threshold); err != nil {
				return err
			}
			if t.Frozen {
				return treasury.ErrTreasuryFrozen
			}
			if !t.CanExecute(p.Signatures) {
				return ErrInvalidProposal
			}
			if err := s.checkPolicy(ctx, p); err != nil {
				return err
			}
			return s.dispatch(ctx, p)
		},
		func(p *Proposal) { p.ApplyExecute(now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if p.Category == domain.CategoryWithdrawal && s.policy != nil {
		if err := s.policy.RecordSpending(ctx, p.TreasuryID, p.TotalAmount()); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record spending",
				"request_id", requestcontext.RequestID(ctx),
				"treasury_id", p.TreasuryID,
				"proposal_id", p.ID,
				"error", err,
			)
		}
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventProposalExecuted),
		TreasuryID: p.TreasuryID,
		ProposalID: p.ID,
		Amount:     p.TotalAmount(),
		Signatures: len(p.Signatures),
	})
	s.metrics.IncrementExecuted(p.Category.String())
	return p, nil
}

// Cancel transitions a pending proposal to Cancelled. Permitted for the
// creator, or for anyone once every current treasury signer has approved.
func (s *Service) Cancel(ctx context.Context, id domain.ProposalID, caller domain.Address) (*Proposal, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	t, err := s.treasuries.Get(ctx, current.TreasuryID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p, err := s.store.Execute(ctx, id,
		func(p *Proposal) error { return p.CanCancel(caller, len(t.Signers)) },
		func(p *Proposal) { p.ApplyCancel(now) },
	)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:     string(audit.EventProposalCancelled),
		TreasuryID: p.TreasuryID,
		ProposalID: p.ID,
		Actor:      caller,
	})
	s.metrics.IncrementCancelled()
	return p, nil
}

// checkPolicy validates the withdrawal batch against the treasury's policy.
// Each transaction is checked with the batch amount accumulated so far: the
// whitelist sees every recipient, and the spending and tier checks are applied
// to the running total, so a batch whose transactions individually fit but
// collectively exceed the cap is rejected.
func (s *Service) checkPolicy(ctx context.Context, p *Proposal) error {
	if p.Category != domain.CategoryWithdrawal || s.policy == nil {
		return nil
	}
	var total int64
	for _, tx := range p.Payload.Transactions {
		total += tx.Amount
		allowed, err := s.policy.ValidateWithdrawal(ctx, p.TreasuryID, tx.Recipient, total, p.Category, len(p.Signatures))
		if err != nil {
			return err
		}
		if !allowed {
			return ErrPolicyViolation
		}
	}
	return nil
}

// dispatch invokes the treasury mutation for the proposal's category.
// update_policy, emergency and other proposals execute as a pure record.
func (s *Service) dispatch(ctx context.Context, p *Proposal) error {
	switch p.Category {
	case domain.CategoryWithdrawal:
		items := make([]treasury.WithdrawalItem, len(p.Payload.Transactions))
		for i, tx := range p.Payload.Transactions {
			items[i] = treasury.WithdrawalItem{Recipient: tx.Recipient, Amount: tx.Amount}
		}
		_, err := s.treasuries.WithdrawBatch(ctx, p.TreasuryID, items)
		return err
	case domain.CategoryAddSigner:
		_, err := s.treasuries.AddSigner(ctx, p.TreasuryID, p.Payload.Signer)
		return err
	case domain.CategoryRemoveSigner:
		_, err := s.treasuries.RemoveSigner(ctx, p.TreasuryID, p.Payload.Signer)
		return err
	case domain.CategoryUpdateThreshold:
		_, err := s.treasuries.UpdateThreshold(ctx, p.TreasuryID, p.Payload.Threshold)
		return err
	default:
		return nil
	}
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
		return dErrors.New(dErrors.CodeNotFound, "proposal not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "proposal store failure")
}
