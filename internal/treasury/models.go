// Package treasury implements the treasury core: the fund balance, the
// authorized-signer set, the approval threshold, and the frozen flag, plus the
// primitive authorized operations every higher layer builds on.
package treasury

import (
	"slices"
	"time"

	"custodia/pkg/domain"

	dErrors "custodia/pkg/domain-errors"
)

// Rejections produced by treasury invariants. Services return these unchanged
// so callers can match with errors.Is.
var (
	ErrInvalidSignerCount     = dErrors.New(dErrors.CodeValidation, "signer list cannot be empty")
	ErrDuplicateSigner        = dErrors.New(dErrors.CodeValidation, "duplicate signer")
	ErrInvalidThreshold       = dErrors.New(dErrors.CodeValidation, "threshold must be between 1 and the signer count")
	ErrSignerAlreadyExists    = dErrors.New(dErrors.CodeConflict, "signer already exists")
	ErrSignerNotFound         = dErrors.New(dErrors.CodeNotFound, "signer not found")
	ErrCannotRemoveLastSigner = dErrors.New(dErrors.CodeConflict, "cannot remove the last signer")
	ErrTreasuryFrozen         = dErrors.New(dErrors.CodeConflict, "treasury is frozen")
	ErrInsufficientBalance    = dErrors.New(dErrors.CodeConflict, "insufficient balance")
	ErrInvalidAmount          = dErrors.New(dErrors.CodeValidation, "amount must be positive")
)

// Treasury is the aggregate root for one custodial fund.
//
// Invariants:
//   - Signers is non-empty and contains no duplicates
//   - 1 <= Threshold <= len(Signers), after every operation including
//     signer-removal auto-adjustment
//   - Balance, TotalDeposited, TotalWithdrawn are non-negative
//   - CreatedAt is immutable after construction
//
// The hosting ledger serializes mutations per treasury; the store's Execute
// callback keeps validate-and-mutate under one lock so the invariants hold
// under interleaved calls against different treasuries.
type Treasury struct {
	ID             domain.TreasuryID `json:"id"`
	Signers        []domain.Address  `json:"signers"`
	Threshold      int               `json:"threshold"`
	Balance        int64             `json:"balance"`
	Frozen         bool              `json:"frozen"`
	TotalDeposited int64             `json:"total_deposited"`
	TotalWithdrawn int64             `json:"total_withdrawn"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// New validates the signer set and threshold and returns a fresh treasury.
func New(id domain.TreasuryID, signers []domain.Address, threshold int, now time.Time) (*Treasury, error) {
	if len(signers) == 0 {
		return nil, ErrInvalidSignerCount
	}
	if len(domain.DedupeAddresses(signers)) != len(signers) {
		return nil, ErrDuplicateSigner
	}
	if threshold < 1 || threshold > len(signers) {
		return nil, ErrInvalidThreshold
	}
	return &Treasury{
		ID:        id,
		Signers:   slices.Clone(signers),
		Threshold: threshold,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsSigner reports whether addr is a current signer.
func (t *Treasury) IsSigner(addr domain.Address) bool {
	return slices.Contains(t.Signers, addr)
}

// CanExecute reports whether the accumulated signatures authorize an action:
// the treasury is not frozen and the distinct, currently-authorized signature
// count meets the threshold. Duplicates and stale signers do not count.
func (t *Treasury) CanExecute(signatures []domain.Address) bool {
	if t.Frozen {
		return false
	}
	if len(signatures) < t.Threshold {
		return false
	}
	distinct := domain.DedupeAddresses(signatures)
	if len(distinct) != len(signatures) {
		return false
	}
	valid := 0
	for _, sig := range distinct {
		if t.IsSigner(sig) {
			valid++
		} else {
			return false
		}
	}
	return valid >= t.Threshold
}

// ApplyDeposit credits the balance. Deposits are unconditional: no freeze
// check, funds are always accepted.
func (t *Treasury) ApplyDeposit(amount int64, now time.Time) {
	t.Balance += amount
	t.TotalDeposited += amount
	t.UpdatedAt = now
}

// CanWithdraw checks the treasury-level withdrawal preconditions.
func (t *Treasury) CanWithdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Frozen {
		return ErrTreasuryFrozen
	}
	if amount > t.Balance {
		return ErrInsufficientBalance
	}
	return nil
}

// ApplyWithdraw debits the balance. Call CanWithdraw first.
func (t *Treasury) ApplyWithdraw(amount int64, now time.Time) {
	t.Balance -= amount
	t.TotalWithdrawn += amount
	t.UpdatedAt = now
}

// ApplyFreeze and ApplyUnfreeze flip the frozen flag unconditionally; gating
// who may call them belongs to the proposal and emergency layers.
func (t *Treasury) ApplyFreeze(now time.Time) {
	t.Frozen = true
	t.UpdatedAt = now
}

func (t *Treasury) ApplyUnfreeze(now time.Time) {
	t.Frozen = false
	t.UpdatedAt = now
}

// CanAddSigner rejects signers already present.
func (t *Treasury) CanAddSigner(addr domain.Address) error {
	if t.IsSigner(addr) {
		return ErrSignerAlreadyExists
	}
	return nil
}

func (t *Treasury) ApplyAddSigner(addr domain.Address, now time.Time) {
	t.Signers = append(t.Signers, addr)
	t.UpdatedAt = now
}

// CanRemoveSigner rejects removing the last signer or an unknown address.
func (t *Treasury) CanRemoveSigner(addr domain.Address) error {
	if len(t.Signers) == 1 {
		return ErrCannotRemoveLastSigner
	}
	if !t.IsSigner(addr) {
		return ErrSignerNotFound
	}
	return nil
}

// ApplyRemoveSigner removes addr. If the removal drops the signer count below
// the current threshold, the threshold is lowered to the new signer count.
// This auto-adjustment is documented behavior, not an error.
func (t *Treasury) ApplyRemoveSigner(addr domain.Address, now time.Time) {
	idx := slices.Index(t.Signers, addr)
	t.Signers = slices.Delete(t.Signers, idx, idx+1)
	if t.Threshold > len(t.Signers) {
		t.Threshold = len(t.Signers)
	}
	t.UpdatedAt = now
}

// CanUpdateThreshold enforces 1 <= newThreshold <= signer count.
func (t *Treasury) CanUpdateThreshold(newThreshold int) error {
	if newThreshold < 1 || newThreshold > len(t.Signers) {
		return ErrInvalidThreshold
	}
	return nil
}

func (t *Treasury) ApplyUpdateThreshold(newThreshold int, now time.Time) {
	t.Threshold = newThreshold
	t.UpdatedAt = now
}

// Clone returns a deep copy so store reads never alias live state.
func (t *Treasury) Clone() *Treasury {
	cp := *t
	cp.Signers = slices.Clone(t.Signers)
	return &cp
}
