package audit

import (
	"time"

	"custodia/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This enables
// different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: every
	// movement of value and every change to who controls it.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// freezes, emergency actions, rejected authorization attempts surfaced
	// by services.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture a successful state
// transition. It is transport-agnostic so stores and sinks can fan out.
// Services emit exactly one event per successful transition and none on a
// failed call.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	Action     string
	TreasuryID domain.TreasuryID
	ProposalID domain.ProposalID
	// Actor is the authenticated address that triggered the transition.
	Actor domain.Address
	// Recipient is set for value movements.
	Recipient domain.Address
	// Amount and Balance carry the moved quantity and the resulting balance
	// for deposits and withdrawals.
	Amount  int64
	Balance int64
	// Signatures is the approval count at the time of the transition, where
	// relevant (proposal signed/executed, emergency actions).
	Signatures int
	Reason     string
	RequestID  string
}

// Action tags for every observable state transition. These are the system's
// externally visible audit trail.
type Action string

const (
	// Treasury events
	EventTreasuryCreated  Action = "treasury_created"
	EventDepositRecorded  Action = "deposit_recorded"
	EventWithdrawalDone   Action = "withdrawal_executed"
	EventTreasuryFrozen   Action = "treasury_frozen"
	EventTreasuryUnfrozen Action = "treasury_unfrozen"
	EventSignerAdded      Action = "signer_added"
	EventSignerRemoved    Action = "signer_removed"
	EventThresholdUpdated Action = "threshold_updated"

	// Proposal events
	EventProposalCreated   Action = "proposal_created"
	EventProposalSigned    Action = "proposal_signed"
	EventProposalExecuted  Action = "proposal_executed"
	EventProposalCancelled Action = "proposal_cancelled"

	// Policy events
	EventPolicyUpdated         Action = "policy_updated"
	EventSpendingLimitExceeded Action = "spending_limit_exceeded"
	EventWhitelistViolation    Action = "whitelist_violation"
	EventSpendingPeriodReset   Action = "spending_period_reset"

	// Emergency events
	EventEmergencyConfigured       Action = "emergency_configured"
	EventEmergencyTriggered        Action = "emergency_triggered"
	EventEmergencyFrozen           Action = "emergency_frozen"
	EventEmergencyUnfrozen         Action = "emergency_unfrozen"
	EventEmergencySignerAdded      Action = "emergency_signer_added"
	EventEmergencySignerRemoved    Action = "emergency_signer_removed"
	EventEmergencyThresholdUpdated Action = "emergency_threshold_updated"
)

// eventCategories maps each action to its category.
var eventCategories = map[Action]EventCategory{
	// Compliance: value movement and control changes
	EventTreasuryCreated:  CategoryCompliance,
	EventDepositRecorded:  CategoryCompliance,
	EventWithdrawalDone:   CategoryCompliance,
	EventSignerAdded:      CategoryCompliance,
	EventSignerRemoved:    CategoryCompliance,
	EventThresholdUpdated: CategoryCompliance,
	EventProposalExecuted: CategoryCompliance,
	EventPolicyUpdated:    CategoryCompliance,

	// Security: freezes, emergency path, policy denials
	EventTreasuryFrozen:            CategorySecurity,
	EventTreasuryUnfrozen:          CategorySecurity,
	EventSpendingLimitExceeded:     CategorySecurity,
	EventWhitelistViolation:        CategorySecurity,
	EventEmergencyConfigured:       CategorySecurity,
	EventEmergencyTriggered:        CategorySecurity,
	EventEmergencyFrozen:           CategorySecurity,
	EventEmergencyUnfrozen:         CategorySecurity,
	EventEmergencySignerAdded:      CategorySecurity,
	EventEmergencySignerRemoved:    CategorySecurity,
	EventEmergencyThresholdUpdated: CategorySecurity,

	// Operations: routine proposal lifecycle
	EventProposalCreated:     CategoryOperations,
	EventProposalSigned:      CategoryOperations,
	EventProposalCancelled:   CategoryOperations,
	EventSpendingPeriodReset: CategoryOperations,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := eventCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
