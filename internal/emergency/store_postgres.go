package emergency

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists emergency configs in the emergency_configs table,
// keyed by treasury. The append-only log is a JSONB column; Execute holds a
// row-level lock across validation and mutation.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, cfg *Config) error {
	log, err := json.Marshal(cfg.Log)
	if err != nil {
		return fmt.Errorf("marshal emergency log: %w", err)
	}

	query := `
		INSERT INTO emergency_configs (
			id, treasury_id, signers, threshold, in_emergency,
			triggered_at, cooldown_seconds, log, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(cfg.ID),
		uuid.UUID(cfg.TreasuryID),
		pq.Array(addressStrings(cfg.Signers)),
		cfg.Threshold,
		cfg.InEmergency,
		nullableTime(cfg.TriggeredAt),
		int64(cfg.Cooldown.Seconds()),
		log,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert emergency config: %w", err)
	}
	return nil
}

func (s *Postgres) FindByTreasury(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	row := s.db.QueryRowContext(ctx, selectEmergency+` WHERE treasury_id = $1`, uuid.UUID(treasuryID))
	return scanEmergency(row)
}

func (s *Postgres) Execute(ctx context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectEmergency+` WHERE treasury_id = $1 FOR UPDATE`, uuid.UUID(treasuryID))
	cfg, err := scanEmergency(row)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	mutate(cfg)

	log, err := json.Marshal(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("marshal emergency log: %w", err)
	}
	query := `
		UPDATE emergency_configs
		SET signers = $2, threshold = $3, in_emergency = $4,
			triggered_at = $5, log = $6, updated_at = $7
		WHERE treasury_id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		uuid.UUID(cfg.TreasuryID),
		pq.Array(addressStrings(cfg.Signers)),
		cfg.Threshold,
		cfg.InEmergency,
		nullableTime(cfg.TriggeredAt),
		log,
		cfg.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update emergency config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit emergency update: %w", err)
	}
	return cfg, nil
}

const selectEmergency = `
	SELECT id, treasury_id, signers, threshold, in_emergency,
		   triggered_at, cooldown_seconds, log, created_at, updated_at
	FROM emergency_configs
`

func scanEmergency(row *sql.Row) (*Config, error) {
	var (
		cfg             Config
		id              uuid.UUID
		treasuryID      uuid.UUID
		signers         []string
		triggeredAt     sql.NullTime
		cooldownSeconds int64
		log             []byte
	)
	err := row.Scan(
		&id,
		&treasuryID,
		pq.Array(&signers),
		&cfg.Threshold,
		&cfg.InEmergency,
		&triggeredAt,
		&cooldownSeconds,
		&log,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan emergency config: %w", err)
	}

	if err := json.Unmarshal(log, &cfg.Log); err != nil {
		return nil, fmt.Errorf("unmarshal emergency log: %w", err)
	}
	cfg.ID = domain.EmergencyID(id)
	cfg.TreasuryID = domain.TreasuryID(treasuryID)
	cfg.Signers = make([]domain.Address, len(signers))
	for i, s := range signers {
		cfg.Signers[i] = domain.Address(s)
	}
	if triggeredAt.Valid {
		cfg.TriggeredAt = triggeredAt.Time
	}
	cfg.Cooldown = time.Duration(cooldownSeconds) * time.Second
	return &cfg, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func addressStrings(addrs []domain.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}
