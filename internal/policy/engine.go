package policy

import (
	"time"

	"custodia/pkg/domain"
)

// Violation names the sub-policy that rejected a withdrawal.
type Violation string

const (
	ViolationNone          Violation = ""
	ViolationSpendingLimit Violation = "spending_limit"
	ViolationWhitelist     Violation = "whitelist"
	ViolationCategory      Violation = "category_gate"
	ViolationSignatureTier Violation = "signature_tier"
)

// ResetSpendingIfElapsed rolls the spending window forward when the period
// has fully elapsed. Reports whether a reset happened so the caller can emit
// the reset record.
func (c *Config) ResetSpendingIfElapsed(now time.Time) bool {
	if c.Spending == nil {
		return false
	}
	if !now.After(c.Spending.PeriodStart.Add(c.Spending.Period.Duration())) {
		return false
	}
	c.Spending.Spent = 0
	c.Spending.PeriodStart = now
	return true
}

// EvaluateWithdrawal checks every enabled sub-policy in order and returns the
// first violation, or ViolationNone when all pass. Disabled sub-policies are
// vacuously true. The caller must have applied ResetSpendingIfElapsed first;
// evaluation itself never mutates.
func (c *Config) EvaluateWithdrawal(recipient domain.Address, amount int64, category domain.Category, signatureCount int, now time.Time) Violation {
	if c.Spending != nil && c.Spending.Spent+amount > c.Spending.Limit {
		return ViolationSpendingLimit
	}
	if c.Whitelist != nil && !c.Whitelist.Allows(recipient, now) {
		return ViolationWhitelist
	}
	if c.CategoryGate != nil && !c.CategoryGate.Allows(category) {
		return ViolationCategory
	}
	if c.Tiers != nil && signatureCount < c.Tiers.Required(amount) {
		return ViolationSignatureTier
	}
	return ViolationNone
}

// Allows reports whether the recipient is listed and unexpired.
func (w *Whitelist) Allows(recipient domain.Address, now time.Time) bool {
	for _, entry := range w.Entries {
		if entry.Address == recipient && !entry.ExpiresAt.Before(now) {
			return true
		}
	}
	return false
}

// Allows reports whether the category is in the permitted set.
func (g *CategoryGate) Allows(category domain.Category) bool {
	for _, allowed := range g.Allowed {
		if allowed == category {
			return true
		}
	}
	return false
}

// Required returns the signature count demanded for the amount: the maximum
// over all tiers whose minimum the amount reaches, 0 when none applies.
func (t *TieredThreshold) Required(amount int64) int {
	required := 0
	for _, tier := range t.Tiers {
		if amount >= tier.MinAmount && tier.RequiredSignatures > required {
			required = tier.RequiredSignatures
		}
	}
	return required
}

// TimeLockFor returns base plus one second per Divisor units of amount,
// or 0 when the time-lock sub-policy is disabled. Divisor is validated
// non-zero at configuration time.
func (c *Config) TimeLockFor(amount int64) time.Duration {
	if c.TimeLock == nil {
		return 0
	}
	return c.TimeLock.Base + time.Duration(amount/c.TimeLock.Divisor)*time.Second
}
