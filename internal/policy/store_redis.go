package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

const (
	policyKeyPrefix = "custodia:policy:"

	// maxExecuteRetries bounds optimistic-lock retries when concurrent spend
	// bookkeeping touches the same config.
	maxExecuteRetries = 5
)

// RedisStore persists policy configs as JSON blobs keyed by treasury, with
// optimistic locking (WATCH/MULTI) for the validate-then-mutate path. Spend
// counters survive process restarts this way.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func policyKey(treasuryID domain.TreasuryID) string {
	return policyKeyPrefix + treasuryID.String()
}

func (s *RedisStore) Save(ctx context.Context, cfg *Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal policy config: %w", err)
	}
	if err := s.client.Set(ctx, policyKey(cfg.TreasuryID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save policy config: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByTreasury(ctx context.Context, treasuryID domain.TreasuryID) (*Config, error) {
	payload, err := s.client.Get(ctx, policyKey(treasuryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load policy config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal policy config: %w", err)
	}
	return &cfg, nil
}

// Execute loads, validates, mutates and writes back the config inside a
// WATCH-guarded transaction, retrying on concurrent modification.
func (s *RedisStore) Execute(ctx context.Context, treasuryID domain.TreasuryID, validate func(*Config) error, mutate func(*Config)) (*Config, error) {
	key := policyKey(treasuryID)

	var result *Config
	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load policy config: %w", err)
		}

		var cfg Config
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return fmt.Errorf("unmarshal policy config: %w", err)
		}
		if err := validate(&cfg); err != nil {
			return err
		}
		mutate(&cfg)

		updated, err := json.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("marshal policy config: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = &cfg
		return nil
	}

	for attempt := 0; attempt < maxExecuteRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, sentinel.ErrUnavailable
}
