// Package domain holds the typed identifiers shared across the governance
// engines. Every entity reference crossing a package boundary is one of these
// types rather than a raw uuid.UUID, so a ProposalID can never be handed to a
// function expecting a TreasuryID.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// Typed entity IDs. Entities reference each other by ID only (a Proposal holds
// a TreasuryID, never a Treasury), so each entity can be created, queried and
// destroyed independently.
type (
	TreasuryID  uuid.UUID
	ProposalID  uuid.UUID
	PolicyID    uuid.UUID
	EmergencyID uuid.UUID
)

func NewTreasuryID() TreasuryID   { return TreasuryID(uuid.New()) }
func NewProposalID() ProposalID   { return ProposalID(uuid.New()) }
func NewPolicyID() PolicyID       { return PolicyID(uuid.New()) }
func NewEmergencyID() EmergencyID { return EmergencyID(uuid.New()) }

func (id TreasuryID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ProposalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EmergencyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id TreasuryID) String() string  { return uuid.UUID(id).String() }
func (id ProposalID) String() string  { return uuid.UUID(id).String() }
func (id PolicyID) String() string    { return uuid.UUID(id).String() }
func (id EmergencyID) String() string { return uuid.UUID(id).String() }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs. Callers get a coded error suitable for direct
// API translation.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return parsed, nil
}

func ParseTreasuryID(raw string) (TreasuryID, error) {
	parsed, err := parseUUID(raw, "treasury")
	if err != nil {
		return TreasuryID{}, err
	}
	return TreasuryID(parsed), nil
}

func ParseProposalID(raw string) (ProposalID, error) {
	parsed, err := parseUUID(raw, "proposal")
	if err != nil {
		return ProposalID{}, err
	}
	return ProposalID(parsed), nil
}

func ParsePolicyID(raw string) (PolicyID, error) {
	parsed, err := parseUUID(raw, "policy")
	if err != nil {
		return PolicyID{}, err
	}
	return PolicyID(parsed), nil
}

func ParseEmergencyID(raw string) (EmergencyID, error) {
	parsed, err := parseUUID(raw, "emergency")
	if err != nil {
		return EmergencyID{}, err
	}
	return EmergencyID(parsed), nil
}
