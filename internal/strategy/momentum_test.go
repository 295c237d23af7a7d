package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
)

// breakoutHistory is 20 flat bars followed by a bar whose close exceeds the
// prior 20-day high by 5% on double the average volume.
func breakoutHistory() map[string][]models.PriceBar {
	closes := make([]float64, 21)
	for i := 0; i < 20; i++ {
		closes[i] = 100
	}
	closes[20] = 105
	bars := barsFromCloses(closes, 1000)
	bars[20].Volume = 2000
	return map[string][]models.PriceBar{"AAPL": bars}
}

func TestMomentumBreakoutBuySignal(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL"}, map[string]float64{
		"lookback_period":   20,
		"volume_multiplier": 1.5,
	})
	require.NoError(t, err)

	signals := s.Analyze(breakoutHistory(), 100000)
	require.Len(t, signals, 1)

	sig := signals[0]
	require.Equal(t, "AAPL", sig.Symbol)
	require.Equal(t, models.ActionBuy, sig.Action)
	// 10% of 100000 at 105/share floors to 95 shares.
	require.Equal(t, int64(95), sig.Qty)
	require.InDelta(t, 105.0, sig.Metadata[models.MetaEntryPrice], 1e-9)
	require.InDelta(t, 105.0*0.95, sig.Metadata[models.MetaStopLoss], 1e-9)
	require.InDelta(t, 105.0*1.15, sig.Metadata[models.MetaTakeProfit], 1e-9)
}

func TestMomentumBreakoutRequiresVolumeConfirmation(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL"}, nil)
	require.NoError(t, err)

	history := breakoutHistory()
	history["AAPL"][20].Volume = 1000 // breakout without volume
	require.Empty(t, s.Analyze(history, 100000))
}

func TestMomentumBreakoutNoBreakoutNoSignal(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL"}, nil)
	require.NoError(t, err)

	history := breakoutHistory()
	history["AAPL"][20].Close = 99 // under the prior high
	require.Empty(t, s.Analyze(history, 100000))
}

func TestMomentumBreakoutDropsUnsizableBuy(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL"}, nil)
	require.NoError(t, err)

	// No portfolio value: the buy cannot be sized and is dropped, not fatal.
	require.Empty(t, s.Analyze(breakoutHistory(), 0))

	// Allocation below one share also drops the signal.
	require.Empty(t, s.Analyze(breakoutHistory(), 500))
}
