package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/pkg/cache"
)

func newStore(t *testing.T) repository.StrategyStore {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	return NewRedisStrategyStore(mem)
}

func sampleConfig(id string) *models.StrategyConfig {
	return &models.StrategyConfig{
		ID:              id,
		Name:            "breakout",
		Type:            "momentum_breakout",
		Symbols:         []string{"AAPL", "MSFT"},
		Parameters:      map[string]float64{"lookback_period": 20},
		IntervalSeconds: 60,
		Enabled:         true,
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleConfig("s1")))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "momentum_breakout", got.Type)
	require.Equal(t, []string{"AAPL", "MSFT"}, got.Symbols)
	require.Equal(t, 20.0, got.Parameters["lookback_period"])
	require.True(t, got.Enabled)
}

func TestGetMissingIsNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveWithoutIDFails(t *testing.T) {
	store := newStore(t)
	err := store.Save(context.Background(), &models.StrategyConfig{})
	require.Error(t, err)
}

func TestListReturnsAllSaved(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleConfig("s1")))
	require.NoError(t, store.Save(ctx, sampleConfig("s2")))
	// Re-saving must not duplicate the index entry.
	require.NoError(t, store.Save(ctx, sampleConfig("s1")))

	configs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 2)
}

func TestDeleteRemovesFromListing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleConfig("s1")))
	require.NoError(t, store.Save(ctx, sampleConfig("s2")))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	configs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	require.Equal(t, "s2", configs[0].ID)
}
