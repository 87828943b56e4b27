// Package policy implements the policy engine: composable automatic
// constraints (spending caps, whitelists, category gating, amount-tiered
// signature requirements, amount-scaled time-locks) validated against a
// prospective withdrawal. It is not wired into the proposal engine by itself;
// the integrator composes them.
package policy

import (
	"time"

	"custodia/pkg/domain"

	dErrors "custodia/pkg/domain-errors"
)

// ErrInvalidPolicyConfig rejects malformed sub-policy configuration at
// configuration time, never at evaluation time.
var ErrInvalidPolicyConfig = dErrors.New(dErrors.CodeValidation, "invalid policy configuration")

// Period is a spending-limit bucketing window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Duration returns the length of the spending window.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDaily:
		return 24 * time.Hour
	case PeriodWeekly:
		return 7 * 24 * time.Hour
	case PeriodMonthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// IsValid checks that the period is a supported window.
func (p Period) IsValid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// SpendingLimit caps cumulative withdrawals per time bucket. Spent and
// PeriodStart are the engine's bookkeeping; a withdrawal is only counted when
// the caller explicitly records it after a validated execution.
type SpendingLimit struct {
	Period      Period    `json:"period"`
	Limit       int64     `json:"limit"`
	Spent       int64     `json:"spent"`
	PeriodStart time.Time `json:"period_start"`
}

// WhitelistEntry authorizes one recipient until its expiry.
type WhitelistEntry struct {
	Address     domain.Address `json:"address"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Description string         `json:"description"`
}

// Whitelist restricts recipients to listed, unexpired entries.
type Whitelist struct {
	Entries []WhitelistEntry `json:"entries"`
}

// CategoryGate restricts which proposal categories may move value.
type CategoryGate struct {
	Allowed []domain.Category `json:"allowed"`
}

// Tier raises the required signature count once an amount reaches MinAmount.
type Tier struct {
	MinAmount          int64 `json:"min_amount"`
	RequiredSignatures int   `json:"required_signatures"`
}

// TieredThreshold scales required signatures with the withdrawal amount.
type TieredThreshold struct {
	Tiers []Tier `json:"tiers"`
}

// TimeLockFormula scales a proposal's time-lock with the amount:
// base + one second per Divisor units of value, floored.
type TimeLockFormula struct {
	Base    time.Duration `json:"base"`
	Divisor int64         `json:"divisor"`
}

// Config attaches the independently enable-able sub-policies to one treasury.
// A nil sub-policy is disabled and vacuously passes.
type Config struct {
	ID         domain.PolicyID   `json:"id"`
	TreasuryID domain.TreasuryID `json:"treasury_id"`

	Spending     *SpendingLimit   `json:"spending,omitempty"`
	Whitelist    *Whitelist       `json:"whitelist,omitempty"`
	CategoryGate *CategoryGate    `json:"category_gate,omitempty"`
	Tiers        *TieredThreshold `json:"tiers,omitempty"`
	TimeLock     *TimeLockFormula `json:"time_lock,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New validates and builds a policy config for a treasury.
func New(id domain.PolicyID, treasuryID domain.TreasuryID, cfg Config, now time.Time) (*Config, error) {
	cfg.ID = id
	cfg.TreasuryID = treasuryID
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if cfg.Spending != nil {
		cfg.Spending.Spent = 0
		cfg.Spending.PeriodStart = now
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects malformed sub-policies. Division-by-zero on the time-lock
// divisor is a configuration-time error, not a calculation-time one.
func (c *Config) Validate() error {
	if c.Spending != nil {
		if !c.Spending.Period.IsValid() || c.Spending.Limit <= 0 {
			return ErrInvalidPolicyConfig
		}
	}
	if c.Whitelist != nil {
		for _, entry := range c.Whitelist.Entries {
			if entry.Address.IsZero() {
				return ErrInvalidPolicyConfig
			}
		}
	}
	if c.CategoryGate != nil {
		for _, cat := range c.CategoryGate.Allowed {
			if !cat.IsValid() {
				return ErrInvalidPolicyConfig
			}
		}
	}
	if c.Tiers != nil {
		for _, tier := range c.Tiers.Tiers {
			if tier.MinAmount < 0 || tier.RequiredSignatures < 0 {
				return ErrInvalidPolicyConfig
			}
		}
	}
	if c.TimeLock != nil {
		if c.TimeLock.Base < 0 || c.TimeLock.Divisor <= 0 {
			return ErrInvalidPolicyConfig
		}
	}
	return nil
}

// Clone returns a deep copy so store reads never alias live state.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Spending != nil {
		spending := *c.Spending
		cp.Spending = &spending
	}
	if c.Whitelist != nil {
		wl := Whitelist{Entries: append([]WhitelistEntry{}, c.Whitelist.Entries...)}
		cp.Whitelist = &wl
	}
	if c.CategoryGate != nil {
		gate := CategoryGate{Allowed: append([]domain.Category{}, c.CategoryGate.Allowed...)}
		cp.CategoryGate = &gate
	}
	if c.Tiers != nil {
		tiers := TieredThreshold{Tiers: append([]Tier{}, c.Tiers.Tiers...)}
		cp.Tiers = &tiers
	}
	if c.TimeLock != nil {
		tl := *c.TimeLock
		cp.TimeLock = &tl
	}
	return &cp
}
