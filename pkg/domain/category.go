package domain

import dErrors "custodia/pkg/domain-errors"

// Category is a domain value that identifies what a proposal intends to do.
// The policy engine's category gate and the proposal engine's dispatch both
// key off it.
//
// Usage: construct via ParseCategory at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Category string

// Supported proposal categories.
const (
	CategoryWithdrawal      Category = "withdrawal"
	CategoryAddSigner       Category = "add_signer"
	CategoryRemoveSigner    Category = "remove_signer"
	CategoryUpdateThreshold Category = "update_threshold"
	CategoryUpdatePolicy    Category = "update_policy"
	CategoryEmergency       Category = "emergency"
	CategoryOther           Category = "other"
)

// validCategories is the single source of truth for valid categories.
var validCategories = map[Category]bool{
	CategoryWithdrawal:      true,
	CategoryAddSigner:       true,
	CategoryRemoveSigner:    true,
	CategoryUpdateThreshold: true,
	CategoryUpdatePolicy:    true,
	CategoryEmergency:       true,
	CategoryOther:           true,
}

// ParseCategory constructs a Category from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}
