// Package repository provides the storage and messaging adapters behind the
// domain repository interfaces: redis for strategy configs, ClickHouse for
// order and backtest history, Kafka for order events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/pkg/cache"
)

const (
	strategyKeyPrefix = "strategy:"
	strategyIndexKey  = "strategy:index"
)

// RedisStrategyStore persists strategy configs as JSON records so they
// survive restarts. An index key holds the known IDs for listing.
type RedisStrategyStore struct {
	cache cache.Service
}

func NewRedisStrategyStore(c cache.Service) repository.StrategyStore {
	return &RedisStrategyStore{cache: c}
}

func (s *RedisStrategyStore) Save(ctx context.Context, cfg *models.StrategyConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("strategy config without id")
	}
	if err := s.cache.Set(ctx, strategyKeyPrefix+cfg.ID, cfg, 0); err != nil {
		return fmt.Errorf("save strategy %s: %w", cfg.ID, err)
	}
	return s.addToIndex(ctx, cfg.ID)
}

func (s *RedisStrategyStore) Get(ctx context.Context, id string) (*models.StrategyConfig, error) {
	var cfg models.StrategyConfig
	err := s.cache.Get(ctx, strategyKeyPrefix+id, &cfg)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("%w: strategy %s", repository.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get strategy %s: %w", id, err)
	}
	return &cfg, nil
}

func (s *RedisStrategyStore) List(ctx context.Context) ([]*models.StrategyConfig, error) {
	ids, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	configs := make([]*models.StrategyConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // index entry outlived its record
			}
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (s *RedisStrategyStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, strategyKeyPrefix+id); err != nil {
		return fmt.Errorf("delete strategy %s: %w", id, err)
	}
	return s.removeFromIndex(ctx, id)
}

func (s *RedisStrategyStore) index(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.cache.Get(ctx, strategyIndexKey, &ids)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("strategy index: %w", err)
	}
	return ids, nil
}

func (s *RedisStrategyStore) addToIndex(ctx context.Context, id string) error {
	return s.updateIndex(ctx, func(ids []string) []string {
		for _, existing := range ids {
			if existing == id {
				return ids
			}
		}
		return append(ids, id)
	})
}

func (s *RedisStrategyStore) removeFromIndex(ctx context.Context, id string) error {
	return s.updateIndex(ctx, func(ids []string) []string {
		out := ids[:0]
		for _, existing := range ids {
			if existing != id {
				out = append(out, existing)
			}
		}
		return out
	})
}

func (s *RedisStrategyStore) updateIndex(ctx context.Context, mutate func([]string) []string) error {
	// Short lock so concurrent saves do not drop index entries.
	locked, err := s.cache.TryLock(ctx, strategyIndexKey+":lock", 2*time.Second)
	if err == nil && locked {
		defer func() { _ = s.cache.Unlock(ctx, strategyIndexKey + ":lock") }()
	}

	ids, err := s.index(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, strategyIndexKey, mutate(ids), 0); err != nil {
		return fmt.Errorf("update strategy index: %w", err)
	}
	return nil
}
