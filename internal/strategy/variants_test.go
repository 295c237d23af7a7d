package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
)

func TestMeanReversionBuysOversoldDipAboveMA(t *testing.T) {
	s, err := New(TypeMeanReversionRSI, []string{"AAPL"}, map[string]float64{
		"rsi_period": 5,
		"ma_period":  50,
	})
	require.NoError(t, err)

	// Long uptrend keeps price above the 50MA; five straight down days push
	// the 5-period RSI to 0.
	closes := make([]float64, 60)
	for i := 0; i < 55; i++ {
		closes[i] = 100 + float64(i)
	}
	for i := 55; i < 60; i++ {
		closes[i] = closes[i-1] - 1
	}
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionBuy, signals[0].Action)
	require.Equal(t, 0.0, signals[0].Metadata["rsi"])
	require.Greater(t, signals[0].Qty, int64(0))
}

func TestMeanReversionSellsAllWhenOverbought(t *testing.T) {
	s, err := New(TypeMeanReversionRSI, []string{"AAPL"}, map[string]float64{
		"rsi_period": 5,
		"ma_period":  50,
	})
	require.NoError(t, err)

	// Monotone rise: RSI pegs at 100.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionSell, signals[0].Action)
	require.Equal(t, int64(0), signals[0].Qty) // sell all
}

func TestDualMAGoldenCross(t *testing.T) {
	s, err := New(TypeDualMovingAverage, []string{"AAPL"}, map[string]float64{
		"fast_ma":  5,
		"slow_ma":  50,
		"trend_ma": 5,
	})
	require.NoError(t, err)

	// Flat at 100, then a jump on the final bar lifts the fast MA through the
	// slow MA while price clears the trend filter.
	closes := make([]float64, 60)
	for i := 0; i < 59; i++ {
		closes[i] = 100
	}
	closes[59] = 120
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionBuy, signals[0].Action)
}

func TestDualMADeathCross(t *testing.T) {
	s, err := New(TypeDualMovingAverage, []string{"AAPL"}, map[string]float64{
		"fast_ma":  5,
		"slow_ma":  50,
		"trend_ma": 5,
	})
	require.NoError(t, err)

	closes := make([]float64, 60)
	for i := 0; i < 59; i++ {
		closes[i] = 100
	}
	closes[59] = 80
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionSell, signals[0].Action)
	require.Equal(t, int64(0), signals[0].Qty)
}

func TestBollingerBuysConfirmedBounce(t *testing.T) {
	s, err := New(TypeBollingerBounce, []string{"AAPL"}, map[string]float64{
		"bb_period": 10,
	})
	require.NoError(t, err)

	// Oscillation establishes the band width, a crash pierces the lower
	// band, then a partial recovery closes back above it but under the SMA.
	closes := make([]float64, 20)
	for i := 0; i < 18; i++ {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}
	closes[18] = 90
	closes[19] = 95
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionBuy, signals[0].Action)
	require.Contains(t, signals[0].Metadata, "lower_band")
}

func TestBollingerSellsAtUpperBand(t *testing.T) {
	s, err := New(TypeBollingerBounce, []string{"AAPL"}, map[string]float64{
		"bb_period": 10,
	})
	require.NoError(t, err)

	closes := make([]float64, 20)
	for i := 0; i < 19; i++ {
		if i%2 == 0 {
			closes[i] = 99
		} else {
			closes[i] = 101
		}
	}
	closes[19] = 120 // spike through the upper band
	history := map[string][]models.PriceBar{"AAPL": barsFromCloses(closes, 1000)}

	signals := s.Analyze(history, 100000)
	require.Len(t, signals, 1)
	require.Equal(t, models.ActionSell, signals[0].Action)
}
