// Package usecase wires the domain components into the operations the API
// layer exposes: strategy lifecycle, backtests, and account passthrough.
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/scheduler"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/logger"
)

// StrategyService manages strategy configs across the scheduler (live
// instances) and the store (persistence across restarts).
type StrategyService struct {
	sched *scheduler.Scheduler
	store repository.StrategyStore
	log   *logger.Logger
}

func NewStrategyService(sched *scheduler.Scheduler, store repository.StrategyStore, log *logger.Logger) *StrategyService {
	return &StrategyService{sched: sched, store: store, log: log}
}

// LoadPersisted registers every stored strategy with the scheduler. Called
// once at startup, before the scheduler starts.
func (s *StrategyService) LoadPersisted(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	configs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}
	for _, cfg := range configs {
		if err := s.sched.Add(cfg); err != nil {
			s.log.Warn("skipping stored strategy",
				logger.String("id", cfg.ID),
				logger.String("type", cfg.Type),
				logger.Error(err))
		}
	}
	s.log.Info("strategies loaded", logger.Int("count", len(configs)))
	return nil
}

// Create validates the type and parameters through the strategy factory,
// registers the config, and persists it. New strategies start disabled.
func (s *StrategyService) Create(ctx context.Context, req *models.CreateStrategyRequest) (*models.StrategyConfig, error) {
	now := time.Now().UTC()
	cfg := &models.StrategyConfig{
		ID:              newID("st"),
		Name:            req.Name,
		Type:            req.Type,
		Symbols:         req.Symbols,
		Parameters:      req.Parameters,
		IntervalSeconds: req.IntervalSeconds,
		Enabled:         false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.sched.Add(cfg); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, cfg.ID); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *StrategyService) Get(ctx context.Context, id string) (*models.StrategyConfig, error) {
	return s.sched.Get(id)
}

func (s *StrategyService) List(ctx context.Context) []*models.StrategyConfig {
	return s.sched.List()
}

// Update replaces mutable fields and rebuilds the live instance, keeping
// execution counters.
func (s *StrategyService) Update(ctx context.Context, id string, req *models.UpdateStrategyRequest) (*models.StrategyConfig, error) {
	cfg, err := s.sched.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		cfg.Name = req.Name
	}
	if len(req.Symbols) > 0 {
		cfg.Symbols = req.Symbols
	}
	if req.Parameters != nil {
		cfg.Parameters = req.Parameters
	}
	if req.IntervalSeconds > 0 {
		cfg.IntervalSeconds = req.IntervalSeconds
	}
	cfg.UpdatedAt = time.Now().UTC()

	// Validate before touching the registered instance.
	if _, err := strategy.New(cfg.Type, cfg.Symbols, cfg.Parameters); err != nil {
		return nil, err
	}

	if err := s.sched.Remove(id); err != nil {
		return nil, err
	}
	if err := s.sched.Add(cfg); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, id); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *StrategyService) Delete(ctx context.Context, id string) error {
	if err := s.sched.Remove(id); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, id); err != nil {
			s.log.Warn("strategy delete not persisted", logger.String("id", id), logger.Error(err))
		}
	}
	return nil
}

// SetEnabled toggles a strategy and persists the new state.
func (s *StrategyService) SetEnabled(ctx context.Context, id string, enabled bool) (*models.StrategyConfig, error) {
	var err error
	if enabled {
		err = s.sched.Enable(id)
	} else {
		err = s.sched.Disable(id)
	}
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, id); err != nil {
		return nil, err
	}
	return s.sched.Get(id)
}

func (s *StrategyService) persist(ctx context.Context, id string) error {
	if s.store == nil {
		return nil
	}
	cfg, err := s.sched.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, cfg); err != nil {
		return fmt.Errorf("persist strategy %s: %w", id, err)
	}
	return nil
}

// newID builds a sortable unique identifier without an external dependency.
func newID(prefix string) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}
