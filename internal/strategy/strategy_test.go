package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
)

// barsFromCloses builds daily bars where high == close and a flat volume.
func barsFromCloses(closes []float64, volume float64) []models.PriceBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    volume,
		}
	}
	return bars
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("martingale", []string{"AAPL"}, nil)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestNewAllTypes(t *testing.T) {
	for _, typ := range Types() {
		s, err := New(typ, []string{"AAPL"}, nil)
		require.NoError(t, err, typ)
		require.Equal(t, typ, s.Type())
	}
}

func TestNewRejectsFastMAAboveSlowMA(t *testing.T) {
	_, err := New(TypeDualMovingAverage, []string{"AAPL"}, map[string]float64{
		"fast_ma": 200,
		"slow_ma": 100,
	})
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestNewRejectsRSIThresholdsOutOfRange(t *testing.T) {
	_, err := New(TypeMeanReversionRSI, []string{"AAPL"}, map[string]float64{
		"rsi_oversold": 55,
	})
	require.ErrorIs(t, err, ErrInvalidParameters)

	_, err = New(TypeMeanReversionRSI, []string{"AAPL"}, map[string]float64{
		"rsi_overbought": 95,
	})
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestParameterOverridesMergeOverDefaults(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL"}, map[string]float64{
		"lookback_period": 30,
	})
	require.NoError(t, err)
	p := s.Parameters()
	require.Equal(t, 30.0, p["lookback_period"])
	require.Equal(t, 1.5, p["volume_multiplier"]) // default preserved
	require.Equal(t, 10.0, p["position_size_pct"])
}

func TestInsufficientHistoryProducesNoSignals(t *testing.T) {
	short := map[string][]models.PriceBar{
		"AAPL": barsFromCloses([]float64{100, 101, 102}, 1000),
	}
	for _, typ := range Types() {
		s, err := New(typ, []string{"AAPL"}, nil)
		require.NoError(t, err)
		require.Empty(t, s.Analyze(short, 100000), typ)
	}
}

func TestMissingSymbolIsSkipped(t *testing.T) {
	s, err := New(TypeMomentumBreakout, []string{"AAPL", "MSFT"}, nil)
	require.NoError(t, err)
	// Only MSFT present, and too short to signal.
	history := map[string][]models.PriceBar{
		"MSFT": barsFromCloses([]float64{100}, 1000),
	}
	require.Empty(t, s.Analyze(history, 100000))
}
