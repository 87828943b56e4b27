// Package proposal implements the proposal state machine: category-specific
// creation, signature accumulation, time-locked threshold execution against
// the treasury core, and cancellation.
package proposal

import (
	"time"

	"custodia/pkg/domain"

	dErrors "custodia/pkg/domain-errors"
)

// Proposal lifecycle errors.
var (
	ErrEmptyTransactions   = dErrors.New(dErrors.CodeValidation, "withdrawal proposal requires at least one transaction")
	ErrTooManyTransactions = dErrors.New(dErrors.CodeValidation, "withdrawal proposal exceeds the transaction limit")
	ErrInvalidTransaction  = dErrors.New(dErrors.CodeValidation, "transaction recipient and positive amount are required")
	ErrInvalidPayload      = dErrors.New(dErrors.CodeValidation, "payload does not match proposal category")
	ErrAlreadyExecuted     = dErrors.New(dErrors.CodeConflict, "proposal has already been executed")
	ErrAlreadyCancelled    = dErrors.New(dErrors.CodeConflict, "proposal has been cancelled")
	ErrAlreadySigned       = dErrors.New(dErrors.CodeConflict, "signer has already signed this proposal")
	ErrNotAuthorizedSigner = dErrors.New(dErrors.CodeForbidden, "caller is not an authorized treasury signer")
	ErrNotProposalCreator  = dErrors.New(dErrors.CodeForbidden, "only the creator or a unanimous signer set may cancel")
	ErrTimeLockNotExpired  = dErrors.New(dErrors.CodeConflict, "proposal time-lock has not expired")
	ErrThresholdNotMet     = dErrors.New(dErrors.CodeConflict, "proposal has not reached the approval threshold")
	ErrInvalidProposal     = dErrors.New(dErrors.CodeInvariantViolation, "accumulated signatures no longer authorize execution")
)

// MaxTransactions bounds a withdrawal batch, which in turn bounds
// execution cost.
const MaxTransactions = 50

// Status is the proposal lifecycle state. Pending is the only non-terminal
// state; transitions are one-way.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuted  Status = "executed"
	StatusCancelled Status = "cancelled"
)

// Transaction is one entry inside a withdrawal proposal: who receives how
// much, and what for.
type Transaction struct {
	Recipient   domain.Address `json:"recipient"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
}

// Payload carries the category-specific content of a proposal. Exactly the
// field matching the category is populated; the category-specific
// constructors below enforce that, so an inconsistent payload never reaches
// a store.
type Payload struct {
	Transactions []Transaction  `json:"transactions,omitempty"`
	Signer       domain.Address `json:"signer,omitempty"`
	Threshold    int            `json:"threshold,omitempty"`
}

// WithdrawalPayload builds a payload for a withdrawal proposal.
func WithdrawalPayload(transactions []Transaction) Payload {
	return Payload{Transactions: transactions}
}

// SignerPayload builds a payload for an add-signer or remove-signer proposal.
func SignerPayload(signer domain.Address) Payload {
	return Payload{Signer: signer}
}

// ThresholdPayload builds a payload for an update-threshold proposal.
func ThresholdPayload(threshold int) Payload {
	return Payload{Threshold: threshold}
}

// RecordOnlyPayload builds the empty payload used by categories that execute
// as a pure audit record (update_policy, emergency, other).
func RecordOnlyPayload() Payload {
	return Payload{}
}

// Proposal is a pending authorization for one treasury action. Immutable
// after creation except for the signature set, the status, and UpdatedAt.
//
// Invariants:
//   - Status transitions only Pending -> Executed or Pending -> Cancelled.
//   - Signatures holds distinct addresses; growth is append-only.
//   - The payload always matches the category.
type Proposal struct {
	ID          domain.ProposalID `json:"id"`
	TreasuryID  domain.TreasuryID `json:"treasury_id"`
	Category    domain.Category   `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Creator     domain.Address    `json:"creator"`
	Payload     Payload           `json:"payload"`

	Signatures []domain.Address `json:"signatures"`
	Status     Status           `json:"status"`

	// TimeLockUntil is fixed at creation: creation time plus the composed
	// time-lock duration. Execution never recomputes it.
	TimeLockUntil time.Time `json:"time_lock_until"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New validates the category-specific payload and builds a pending proposal.
// The caller supplies the full time-lock duration, policy extension included.
func New(id domain.ProposalID, treasuryID domain.TreasuryID, creator domain.Address, category domain.Category, title, description string, payload Payload, timeLock time.Duration, now time.Time) (*Proposal, error) {
	if !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	if err := validatePayload(category, payload); err != nil {
		return nil, err
	}

	return &Proposal{
		ID:            id,
		TreasuryID:    treasuryID,
		Category:      category,
		Title:         title,
		Description:   description,
		Creator:       creator,
		Payload:       payload,
		Signatures:    []domain.Address{},
		Status:        StatusPending,
		TimeLockUntil: now.Add(timeLock),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validatePayload(category domain.Category, payload Payload) error {
	switch category {
	case domain.CategoryWithdrawal:
		if !payload.Signer.IsZero() || payload.Threshold != 0 {
			return ErrInvalidPayload
		}
		if len(payload.Transactions) == 0 {
			return ErrEmptyTransactions
		}
		if len(payload.Transactions) > MaxTransactions {
			return ErrTooManyTransactions
		}
		for _, tx := range payload.Transactions {
			if tx.Recipient.IsZero() || tx.Amount <= 0 {
				return ErrInvalidTransaction
			}
		}
	case domain.CategoryAddSigner, domain.CategoryRemoveSigner:
		if len(payload.Transactions) != 0 || payload.Threshold != 0 || payload.Signer.IsZero() {
			return ErrInvalidPayload
		}
	case domain.CategoryUpdateThreshold:
		if len(payload.Transactions) != 0 || !payload.Signer.IsZero() || payload.Threshold < 1 {
			return ErrInvalidPayload
		}
	default:
		// update_policy, emergency and other execute as a pure record.
		if len(payload.Transactions) != 0 || !payload.Signer.IsZero() || payload.Threshold != 0 {
			return ErrInvalidPayload
		}
	}
	return nil
}

// TotalAmount sums the withdrawal transactions, 0 for other categories.
func (p *Proposal) TotalAmount() int64 {
	var total int64
	for _, tx := range p.Payload.Transactions {
		total += tx.Amount
	}
	return total
}

// HasSigned reports whether the address is already in the approval set.
func (p *Proposal) HasSigned(signer domain.Address) bool {
	for _, s := range p.Signatures {
		if s == signer {
			return true
		}
	}
	return false
}

func (p *Proposal) checkPending() error {
	switch p.Status {
	case StatusExecuted:
		return ErrAlreadyExecuted
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return nil
	}
}

// CanSign reports whether the signer may approve the proposal. Treasury
// membership is the caller's check; this only covers proposal state.
func (p *Proposal) CanSign(signer domain.Address) error {
	if err := p.checkPending(); err != nil {
		return err
	}
	if p.HasSigned(signer) {
		return ErrAlreadySigned
	}
	return nil
}

// ApplySign appends the signer. Caller must have validated with CanSign.
func (p *Proposal) ApplySign(signer domain.Address, now time.Time) {
	p.Signatures = append(p.Signatures, signer)
	p.UpdatedAt = now
}

// CanExecute checks the proposal-level execution preconditions: pending
// status, expired time-lock, and the treasury's approval threshold.
func (p *Proposal) CanExecute(now time.Time, threshold int) error {
	if err := p.checkPending(); err != nil {
		return err
	}
	if now.Before(p.TimeLockUntil) {
		return ErrTimeLockNotExpired
	}
	if len(p.Signatures) < threshold {
		return ErrThresholdNotMet
	}
	return nil
}

// ApplyExecute marks the proposal executed.
func (p *Proposal) ApplyExecute(now time.Time) {
	p.Status = StatusExecuted
	p.UpdatedAt = now
}

// CanCancel permits the creator, or any caller once every current treasury
// signer has approved (unanimous-signer override).
func (p *Proposal) CanCancel(caller domain.Address, treasurySignerCount int) error {
	if err := p.checkPending(); err != nil {
		return err
	}
	if caller == p.Creator {
		return nil
	}
	if treasurySignerCount > 0 && len(p.Signatures) == treasurySignerCount {
		return nil
	}
	return ErrNotProposalCreator
}

// ApplyCancel marks the proposal cancelled.
func (p *Proposal) ApplyCancel(now time.Time) {
	p.Status = StatusCancelled
	p.UpdatedAt = now
}

// Clone returns a deep copy so store reads never alias live state.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Signatures = append([]domain.Address{}, p.Signatures...)
	if p.Payload.Transactions != nil {
		cp.Payload.Transactions = append([]Transaction{}, p.Payload.Transactions...)
	}
	return &cp
}
