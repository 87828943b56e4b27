package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists proposals in the proposals table. The category-specific
// payload is stored as a JSONB column; Execute holds a row-level lock across
// validation and mutation like the treasury store does.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *Proposal) error {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return fmt.Errorf("marshal proposal payload: %w", err)
	}

	query := `
		INSERT INTO proposals (
			id, treasury_id, category, title, description, creator,
			payload, signatures, status, time_lock_until, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.TreasuryID),
		p.Category.String(),
		p.Title,
		p.Description,
		string(p.Creator),
		payload,
		pq.Array(signatureStrings(p.Signatures)),
		string(p.Status),
		p.TimeLockUntil,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ProposalID) (*Proposal, error) {
	row := s.db.QueryRowContext(ctx, selectProposal+` WHERE id = $1`, uuid.UUID(id))
	return scanProposal(row)
}

func (s *Postgres) ListByTreasury(ctx context.Context, treasuryID domain.TreasuryID) ([]*Proposal, error) {
	rows, err := s.db.QueryContext(ctx,
		selectProposal+` WHERE treasury_id = $1 ORDER BY created_at`,
		uuid.UUID(treasuryID),
	)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []*Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, id domain.ProposalID, validate func(*Proposal) error, mutate func(*Proposal)) (*Proposal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectProposal+` WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	p, err := scanProposal(row)
	if err != nil {
		return nil, err
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	query := `
		UPDATE proposals
		SET signatures = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		pq.Array(signatureStrings(p.Signatures)),
		string(p.Status),
		p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit proposal update: %w", err)
	}
	return p, nil
}

const selectProposal = `
	SELECT id, treasury_id, category, title, description, creator,
		   payload, signatures, status, time_lock_until, created_at, updated_at
	FROM proposals
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*Proposal, error) {
	var (
		p          Proposal
		id         uuid.UUID
		treasuryID uuid.UUID
		category   string
		creator    string
		payload    []byte
		signatures []string
		status     string
	)
	err := row.Scan(
		&id,
		&treasuryID,
		&category,
		&p.Title,
		&p.Description,
		&creator,
		&payload,
		pq.Array(&signatures),
		&status,
		&p.TimeLockUntil,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}

	if err := json.Unmarshal(payload, &p.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal proposal payload: %w", err)
	}
	p.ID = domain.ProposalID(id)
	p.TreasuryID = domain.TreasuryID(treasuryID)
	p.Category = domain.Category(category)
	p.Creator = domain.Address(creator)
	p.Status = Status(status)
	p.Signatures = make([]domain.Address, len(signatures))
	for i, s := range signatures {
		p.Signatures[i] = domain.Address(s)
	}
	return &p, nil
}

func signatureStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}
