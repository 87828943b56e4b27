package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the outbox
// worker; the audit_events table is the queryable materialization.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// Event for proper deserialization by consumers.
type outboxPayload struct {
	ID         string `json:"ID"`
	Category   string `json:"Category"`
	Timestamp  string `json:"Timestamp"`
	Action     string `json:"Action"`
	TreasuryID string `json:"TreasuryID,omitempty"`
	ProposalID string `json:"ProposalID,omitempty"`
	Actor      string `json:"Actor,omitempty"`
	Recipient  string `json:"Recipient,omitempty"`
	Amount     int64  `json:"Amount,omitempty"`
	Balance    int64  `json:"Balance,omitempty"`
	Signatures int    `json:"Signatures,omitempty"`
	Reason     string `json:"Reason,omitempty"`
	RequestID  string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	// Category always derives from the action tag; the map in models.go is
	// the source of truth.
	category := Action(event.Action).Category()

	payload := outboxPayload{
		ID:         eventID.String(),
		Category:   string(category),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Action:     event.Action,
		Actor:      event.Actor.String(),
		Recipient:  event.Recipient.String(),
		Amount:     event.Amount,
		Balance:    event.Balance,
		Signatures: event.Signatures,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
	}
	if !event.TreasuryID.IsNil() {
		payload.TreasuryID = event.TreasuryID.String()
	}
	if !event.ProposalID.IsNil() {
		payload.ProposalID = event.ProposalID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.TreasuryID.IsNil() {
		aggregateType = "treasury"
		aggregateID = event.TreasuryID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(), // outbox entry ID
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	// Materialize for querying; idempotent on replay.
	return s.appendEvent(ctx, eventID, category, event)
}

func (s *PostgresStore) appendEvent(ctx context.Context, eventID uuid.UUID, category EventCategory, event Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, treasury_id, proposal_id,
			actor, recipient, amount, balance, signatures, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	var treasuryID, proposalID *uuid.UUID
	if !event.TreasuryID.IsNil() {
		tid := uuid.UUID(event.TreasuryID)
		treasuryID = &tid
	}
	if !event.ProposalID.IsNil() {
		pid := uuid.UUID(event.ProposalID)
		proposalID = &pid
	}

	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.Action,
		treasuryID,
		proposalID,
		event.Actor.String(),
		event.Recipient.String(),
		event.Amount,
		event.Balance,
		event.Signatures,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByTreasury returns events for a specific treasury in chronological
// order, matching the in-memory store.
func (s *PostgresStore) ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]Event, error) {
	query := `
		SELECT category, timestamp, action, treasury_id, proposal_id,
			   actor, recipient, amount, balance, signatures, reason, request_id
		FROM audit_events
		WHERE treasury_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(treasuryID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *PostgresStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event

	for rows.Next() {
		var (
			category   string
			event      Event
			actor      string
			recipient  string
			treasuryID *uuid.UUID
			proposalID *uuid.UUID
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&treasuryID,
			&proposalID,
			&actor,
			&recipient,
			&event.Amount,
			&event.Balance,
			&event.Signatures,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = EventCategory(category)
		event.Actor = domain.Address(actor)
		event.Recipient = domain.Address(recipient)
		if treasuryID != nil {
			event.TreasuryID = domain.TreasuryID(*treasuryID)
		}
		if proposalID != nil {
			event.ProposalID = domain.ProposalID(*proposalID)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
