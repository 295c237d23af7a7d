package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	models "TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/monitor"
	internalrepo "TradeDesk/internal/repository"
	"TradeDesk/internal/scheduler"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/cache"
	"TradeDesk/pkg/logger"
)

func newStrategyService(t *testing.T) (*StrategyService, *scheduler.Scheduler, repository.StrategyStore) {
	t.Helper()
	log := logger.Nop()
	mon := monitor.New(nil, log)
	sched := scheduler.New(scheduler.Config{}, nil, mon, nil, nil, nil, nil, log)
	store := internalrepo.NewRedisStrategyStore(cache.NewMemoryCache())
	return NewStrategyService(sched, store, log), sched, store
}

func createRequest() *models.CreateStrategyRequest {
	return &models.CreateStrategyRequest{
		Name:            "breakout-tech",
		Type:            strategy.TypeMomentumBreakout,
		Symbols:         []string{"AAPL", "MSFT"},
		IntervalSeconds: 300,
	}
}

func TestCreateRegistersAndPersists(t *testing.T) {
	svc, sched, store := newStrategyService(t)
	ctx := context.Background()

	cfg, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	require.NotEmpty(t, cfg.ID)
	require.False(t, cfg.Enabled)
	require.False(t, cfg.CreatedAt.IsZero())

	live, err := sched.Get(cfg.ID)
	require.NoError(t, err)
	require.Equal(t, "breakout-tech", live.Name)

	stored, err := store.Get(ctx, cfg.ID)
	require.NoError(t, err)
	require.Equal(t, cfg.Symbols, stored.Symbols)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _, store := newStrategyService(t)
	ctx := context.Background()

	req := createRequest()
	req.Type = "martingale"
	_, err := svc.Create(ctx, req)
	require.ErrorIs(t, err, strategy.ErrUnknownType)

	configs, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, configs)
}

func TestUpdateChangesFieldsAndPersists(t *testing.T) {
	svc, sched, store := newStrategyService(t)
	ctx := context.Background()

	cfg, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, cfg.ID, &models.UpdateStrategyRequest{
		Name:            "breakout-tech-v2",
		IntervalSeconds: 600,
		Parameters:      map[string]float64{"lookback_period": 30},
	})
	require.NoError(t, err)
	require.Equal(t, "breakout-tech-v2", updated.Name)
	require.Equal(t, 600, updated.IntervalSeconds)

	live, err := sched.Get(cfg.ID)
	require.NoError(t, err)
	require.Equal(t, float64(30), live.Parameters["lookback_period"])

	stored, err := store.Get(ctx, cfg.ID)
	require.NoError(t, err)
	require.Equal(t, "breakout-tech-v2", stored.Name)
}

func TestUpdateRejectsInvalidParameters(t *testing.T) {
	svc, sched, _ := newStrategyService(t)
	ctx := context.Background()

	cfg, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, cfg.ID, &models.UpdateStrategyRequest{
		Parameters: map[string]float64{"lookback_period": 1},
	})
	require.ErrorIs(t, err, strategy.ErrInvalidParameters)

	// The registered instance keeps its previous parameters.
	live, err := sched.Get(cfg.ID)
	require.NoError(t, err)
	require.NotEqual(t, float64(1), live.Parameters["lookback_period"])
}

func TestDeleteRemovesEverywhere(t *testing.T) {
	svc, sched, store := newStrategyService(t)
	ctx := context.Background()

	cfg, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, cfg.ID))

	_, err = sched.Get(cfg.ID)
	require.ErrorIs(t, err, scheduler.ErrStrategyNotFound)

	configs, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, configs)
}

func TestSetEnabledTogglesAndPersists(t *testing.T) {
	svc, _, store := newStrategyService(t)
	ctx := context.Background()

	cfg, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	enabled, err := svc.SetEnabled(ctx, cfg.ID, true)
	require.NoError(t, err)
	require.True(t, enabled.Enabled)

	stored, err := store.Get(ctx, cfg.ID)
	require.NoError(t, err)
	require.True(t, stored.Enabled)

	disabled, err := svc.SetEnabled(ctx, cfg.ID, false)
	require.NoError(t, err)
	require.False(t, disabled.Enabled)
}

func TestLoadPersistedRegistersStoredConfigs(t *testing.T) {
	svc, _, store := newStrategyService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	second := createRequest()
	second.Name = "breakout-etf"
	second.Symbols = []string{"SPY"}
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	// A fresh scheduler simulates a restart recovering from the store.
	log := logger.Nop()
	fresh := scheduler.New(scheduler.Config{}, nil, monitor.New(nil, log), nil, nil, nil, nil, log)
	recovered := NewStrategyService(fresh, store, log)
	require.NoError(t, recovered.LoadPersisted(ctx))

	require.Len(t, fresh.List(), 2)
	cfg, err := fresh.Get(first.ID)
	require.NoError(t, err)
	require.Equal(t, "breakout-tech", cfg.Name)
}
