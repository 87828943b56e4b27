package treasury

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists treasuries in the treasuries table. Execute holds a
// row-level lock (SELECT ... FOR UPDATE) across validation and mutation,
// matching the in-memory store's serialization guarantee.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, t *Treasury) error {
	query := `
		INSERT INTO treasuries (
			id, signers, threshold, balance, frozen,
			total_deposited, total_withdrawn, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ID),
		pq.Array(addressStrings(t.Signers)),
		t.Threshold,
		t.Balance,
		t.Frozen,
		t.TotalDeposited,
		t.TotalWithdrawn,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert treasury: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.TreasuryID) (*Treasury, error) {
	row := s.db.QueryRowContext(ctx, selectTreasury+` WHERE id = $1`, uuid.UUID(id))
	return scanTreasury(row)
}

func (s *Postgres) Execute(ctx context.Context, id domain.TreasuryID, validate func(*Treasury) error, mutate func(*Treasury)) (*Treasury, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectTreasury+` WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	t, err := scanTreasury(row)
	if err != nil {
		return nil, err
	}

	if err := validate(t); err != nil {
		return nil, err
	}
	mutate(t)

	query := `
		UPDATE treasuries
		SET signers = $2, threshold = $3, balance = $4, frozen = $5,
			total_deposited = $6, total_withdrawn = $7, updated_at = $8
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		uuid.UUID(t.ID),
		pq.Array(addressStrings(t.Signers)),
		t.Threshold,
		t.Balance,
		t.Frozen,
		t.TotalDeposited,
		t.TotalWithdrawn,
		t.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update treasury: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit treasury update: %w", err)
	}
	return t, nil
}

const selectTreasury = `
	SELECT id, signers, threshold, balance, frozen,
		   total_deposited, total_withdrawn, created_at, updated_at
	FROM treasuries
`

func scanTreasury(row *sql.Row) (*Treasury, error) {
	var (
		t       Treasury
		id      uuid.UUID
		signers []string
	)
	err := row.Scan(
		&id,
		pq.Array(&signers),
		&t.Threshold,
		&t.Balance,
		&t.Frozen,
		&t.TotalDeposited,
		&t.TotalWithdrawn,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan treasury: %w", err)
	}
	t.ID = domain.TreasuryID(id)
	t.Signers = make([]domain.Address, len(signers))
	for i, s := range signers {
		t.Signers[i] = domain.Address(s)
	}
	return &t, nil
}

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}
