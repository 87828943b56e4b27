// Package emergency implements the emergency override path: an independent
// signer set, threshold-gated freeze/unfreeze of a treasury, and a
// cooldown-enforced recovery, bypassing the proposal engine entirely.
package emergency

import (
	"time"

	"custodia/pkg/domain"

	dErrors "custodia/pkg/domain-errors"
)

// Emergency engine errors.
var (
	ErrInvalidSignerCount        = dErrors.New(dErrors.CodeValidation, "emergency config requires at least one signer")
	ErrDuplicateSigner           = dErrors.New(dErrors.CodeValidation, "duplicate emergency signer address")
	ErrInvalidEmergencyThreshold = dErrors.New(dErrors.CodeValidation, "emergency threshold below the two-thirds floor")
	ErrEmergencyThresholdNotMet  = dErrors.New(dErrors.CodeForbidden, "not enough distinct emergency signatures")
	ErrNotEmergencySigner        = dErrors.New(dErrors.CodeForbidden, "signature from a non-emergency signer")
	ErrAlreadyInEmergency        = dErrors.New(dErrors.CodeConflict, "treasury is already in emergency mode")
	ErrNotInEmergency            = dErrors.New(dErrors.CodeConflict, "treasury is not in emergency mode")
	ErrCooldownNotExpired        = dErrors.New(dErrors.CodeConflict, "emergency cooldown has not expired")
	ErrSignerAlreadyExists       = dErrors.New(dErrors.CodeConflict, "address is already an emergency signer")
	ErrSignerNotFound            = dErrors.New(dErrors.CodeNotFound, "address is not an emergency signer")
	ErrCannotRemoveLastSigner    = dErrors.New(dErrors.CodeConflict, "cannot remove the last emergency signer")
)

// DefaultCooldown applies when the caller configures no explicit cooldown.
const DefaultCooldown = 24 * time.Hour

// Emergency action names recorded in the config's append-only log.
const (
	LogFreeze          = "freeze"
	LogTrigger         = "trigger_emergency"
	LogUnfreeze        = "unfreeze"
	LogSignerAdded     = "signer_added"
	LogSignerRemoved   = "signer_removed"
	LogThresholdUpdate = "threshold_updated"
)

// LogEntry is one line of the config's append-only emergency log.
type LogEntry struct {
	Action     string         `json:"action"`
	Actor      domain.Address `json:"actor,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Signatures int            `json:"signatures,omitempty"`
	Time       time.Time      `json:"time"`
}

// Config is the emergency override state for one treasury: a signer set
// independent of the treasury's, a threshold floored at two thirds of the
// signer count, and the in-emergency flag with its cooldown clock.
//
// Invariants:
//   - 1 <= Threshold <= len(Signers) at creation and after every explicit
//     threshold update; signer removal may auto-lower Threshold to the new
//     signer count without re-checking the two-thirds floor.
//   - Log is append-only.
type Config struct {
	ID         domain.EmergencyID `json:"id"`
	TreasuryID domain.TreasuryID  `json:"treasury_id"`

	Signers   []domain.Address `json:"signers"`
	Threshold int              `json:"threshold"`

	InEmergency bool          `json:"in_emergency"`
	TriggeredAt time.Time     `json:"triggered_at,omitzero"`
	Cooldown    time.Duration `json:"cooldown"`

	Log []LogEntry `json:"log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MinThreshold is ceil(66% of the signer count), never below 1.
func MinThreshold(signerCount int) int {
	min := (66*signerCount + 99) / 100
	if min < 1 {
		min = 1
	}
	return min
}

// New validates the signer set and the two-thirds threshold floor and builds
// an emergency config. A non-positive cooldown falls back to DefaultCooldown.
func New(id domain.EmergencyID, treasuryID domain.TreasuryID, signers []domain.Address, threshold int, cooldown time.Duration, now time.Time) (*Config, error) {
	if len(signers) == 0 {
		return nil, ErrInvalidSignerCount
	}
	if len(domain.DedupeAddresses(signers)) != len(signers) {
		return nil, ErrDuplicateSigner
	}
	if threshold < MinThreshold(len(signers)) || threshold > len(signers) {
		return nil, ErrInvalidEmergencyThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Config{
		ID:         id,
		TreasuryID: treasuryID,
		Signers:    append([]domain.Address{}, signers...),
		Threshold:  threshold,
		Cooldown:   cooldown,
		Log:        []LogEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsSigner reports whether the address is an emergency signer.
func (c *Config) IsSigner(addr domain.Address) bool {
	for _, s := range c.Signers {
		if s == addr {
			return true
		}
	}
	return false
}

// VerifySignatures checks that every signature comes from an emergency
// signer and that the distinct count reaches the threshold. Duplicates are
// discounted, not rejected outright.
func (c *Config) VerifySignatures(signatures []domain.Address) error {
	for _, sig := range signatures {
		if !c.IsSigner(sig) {
			return ErrNotEmergencySigner
		}
	}
	if len(domain.DedupeAddresses(signatures)) < c.Threshold {
		return ErrEmergencyThresholdNotMet
	}
	return nil
}

// ApplyFreeze records an emergency freeze. Freezing while already in
// emergency is allowed and refreshes the cooldown clock.
func (c *Config) ApplyFreeze(actor domain.Address, reason string, signatures int, now time.Time) {
	c.InEmergency = true
	c.TriggeredAt = now
	c.appendLog(LogEntry{Action: LogFreeze, Actor: actor, Reason: reason, Signatures: signatures, Time: now})
}

// CanTrigger rejects triggering when already in emergency mode.
func (c *Config) CanTrigger() error {
	if c.InEmergency {
		return ErrAlreadyInEmergency
	}
	return nil
}

// ApplyTrigger flags emergency mode without touching the treasury's frozen
// state; freezing is a separate explicit action.
func (c *Config) ApplyTrigger(actor domain.Address, reason string, signatures int, now time.Time) {
	c.InEmergency = true
	c.TriggeredAt = now
	c.appendLog(LogEntry{Action: LogTrigger, Actor: actor, Reason: reason, Signatures: signatures, Time: now})
}

// CanUnfreeze requires active emergency mode and an expired cooldown.
func (c *Config) CanUnfreeze(now time.Time) error {
	if !c.InEmergency {
		return ErrNotInEmergency
	}
	if now.Before(c.TriggeredAt.Add(c.Cooldown)) {
		return ErrCooldownNotExpired
	}
	return nil
}

// ApplyUnfreeze clears emergency mode.
func (c *Config) ApplyUnfreeze(actor domain.Address, signatures int, now time.Time) {
	c.InEmergency = false
	c.appendLog(LogEntry{Action: LogUnfreeze, Actor: actor, Signatures: signatures, Time: now})
}

// CanAddSigner rejects duplicates.
func (c *Config) CanAddSigner(addr domain.Address) error {
	if c.IsSigner(addr) {
		return ErrSignerAlreadyExists
	}
	return nil
}

// ApplyAddSigner appends the signer.
func (c *Config) ApplyAddSigner(addr domain.Address, actor domain.Address, now time.Time) {
	c.Signers = append(c.Signers, addr)
	c.appendLog(LogEntry{Action: LogSignerAdded, Actor: actor, Reason: string(addr), Time: now})
	c.UpdatedAt = now
}

// CanRemoveSigner rejects removing the last signer or an unknown address.
func (c *Config) CanRemoveSigner(addr domain.Address) error {
	if len(c.Signers) == 1 {
		return ErrCannotRemoveLastSigner
	}
	if !c.IsSigner(addr) {
		return ErrSignerNotFound
	}
	return nil
}

// ApplyRemoveSigner drops the signer, auto-lowering the threshold to the new
// signer count when the removal leaves it above. The two-thirds floor is not
// re-checked here; only an explicit threshold update re-enforces it.
func (c *Config) ApplyRemoveSigner(addr domain.Address, actor domain.Address, now time.Time) {
	signers := c.Signers[:0]
	for _, s := range c.Signers {
		if s != addr {
			signers = append(signers, s)
		}
	}
	c.Signers = signers
	if c.Threshold > len(c.Signers) {
		c.Threshold = len(c.Signers)
	}
	c.appendLog(LogEntry{Action: LogSignerRemoved, Actor: actor, Reason: string(addr), Time: now})
	c.UpdatedAt = now
}

// CanUpdateThreshold enforces the range check and, unlike removal
// auto-adjustment, re-enforces the two-thirds floor.
func (c *Config) CanUpdateThreshold(newThreshold int) error {
	if newThreshold < MinThreshold(len(c.Signers)) || newThreshold > len(c.Signers) {
		return ErrInvalidEmergencyThreshold
	}
	return nil
}

// ApplyUpdateThreshold sets the new threshold.
func (c *Config) ApplyUpdateThreshold(newThreshold int, actor domain.Address, now time.Time) {
	c.Threshold = newThreshold
	c.appendLog(LogEntry{Action: LogThresholdUpdate, Actor: actor, Signatures: newThreshold, Time: now})
	c.UpdatedAt = now
}

func (c *Config) appendLog(entry LogEntry) {
	c.Log = append(c.Log, entry)
	c.UpdatedAt = entry.Time
}

// Clone returns a deep copy so store reads never alias live state.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Signers = append([]domain.Address{}, c.Signers...)
	cp.Log = append([]LogEntry{}, c.Log...)
	return &cp
}
