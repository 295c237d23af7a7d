package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/strategy"
)

func dailyBars(closes []float64) []models.PriceBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

// scripted emits pre-programmed signals keyed by how many bars of the first
// symbol are visible, so fills land on exact known days.
type scripted struct {
	symbols []string
	script  map[int][]models.Signal
}

func (s *scripted) Name() string                   { return "scripted" }
func (s *scripted) Type() string                   { return "scripted" }
func (s *scripted) Symbols() []string              { return s.symbols }
func (s *scripted) Parameters() map[string]float64 { return nil }
func (s *scripted) Validate() error                { return nil }

func (s *scripted) Analyze(history map[string][]models.PriceBar, _ float64) []models.Signal {
	return s.script[len(history[s.symbols[0]])]
}

func runWindow(n int) (time.Time, time.Time) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return base, base.AddDate(0, 0, n)
}

func TestRunRejectsBadRange(t *testing.T) {
	e := NewEngine(10000, 0)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := e.Run(&scripted{symbols: []string{"AAPL"}}, nil, start, start)
	require.ErrorIs(t, err, ErrBadRange)
}

func TestRunRejectsEmptyData(t *testing.T) {
	e := NewEngine(10000, 0)
	start, end := runWindow(10)
	_, err := e.Run(&scripted{symbols: []string{"AAPL"}}, map[string][]models.PriceBar{}, start, end)
	require.ErrorIs(t, err, ErrEmptyData)
}

func TestRunFillsAndAccounting(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars([]float64{100, 100, 110, 110, 120}),
	}
	strat := &scripted{
		symbols: []string{"AAPL"},
		script: map[int][]models.Signal{
			2: {{Symbol: "AAPL", Action: models.ActionBuy, Qty: 10}},
			4: {{Symbol: "AAPL", Action: models.ActionSell, Qty: 0}},
		},
	}

	e := NewEngine(10000, 0)
	start, end := runWindow(10)
	res, err := e.Run(strat, history, start, end)
	require.NoError(t, err)

	require.Len(t, res.EquityCurve, 5)
	require.InDelta(t, 10000.0, res.EquityCurve[0].Equity, 1e-9)
	require.InDelta(t, 9000.0, res.EquityCurve[1].Cash, 1e-9)  // bought 10 @ 100
	require.InDelta(t, 10100.0, res.EquityCurve[2].Equity, 1e-9)
	require.InDelta(t, 10100.0, res.EquityCurve[3].Cash, 1e-9) // sold 10 @ 110
	require.InDelta(t, 10100.0, res.EquityCurve[4].Equity, 1e-9)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	require.InDelta(t, 100.0, tr.EntryPrice, 1e-9)
	require.InDelta(t, 110.0, tr.ExitPrice, 1e-9)
	require.InDelta(t, 100.0, tr.PnL, 1e-9)
	require.InDelta(t, 10.0, tr.PnLPct, 1e-9)

	require.InDelta(t, 1.0, res.Metrics.TotalReturnPct, 1e-9)
	require.InDelta(t, 20.0, res.Metrics.BuyAndHoldReturnPct, 1e-9)
	require.Equal(t, 1, res.Metrics.TotalTrades)
	require.Equal(t, 1, res.Metrics.WinningTrades)
	require.InDelta(t, 100.0, res.Metrics.WinRatePct, 1e-9)
	require.InDelta(t, 100.0, res.Metrics.AvgWin, 1e-9) // dollar PnL of the single win
	require.Equal(t, 1, res.Metrics.MaxConsecutiveWins)
}

func TestRunAppliesSlippageBothWays(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars([]float64{100, 100, 110, 110, 120}),
	}
	strat := &scripted{
		symbols: []string{"AAPL"},
		script: map[int][]models.Signal{
			2: {{Symbol: "AAPL", Action: models.ActionBuy, Qty: 10}},
			4: {{Symbol: "AAPL", Action: models.ActionSell, Qty: 0}},
		},
	}

	e := NewEngine(10000, 1) // 1% slippage
	start, end := runWindow(10)
	res, err := e.Run(strat, history, start, end)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	require.InDelta(t, 101.0, tr.EntryPrice, 1e-9)  // 100 * 1.01
	require.InDelta(t, 108.9, tr.ExitPrice, 1e-9)   // 110 * 0.99
	require.InDelta(t, 79.0, tr.PnL, 1e-9)
	require.InDelta(t, 10079.0, res.Metrics.FinalEquity, 1e-9)
}

func TestRunRejectsUnfundedBuy(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars([]float64{100, 100, 110}),
	}
	strat := &scripted{
		symbols: []string{"AAPL"},
		script: map[int][]models.Signal{
			2: {{Symbol: "AAPL", Action: models.ActionBuy, Qty: 10}}, // costs 1000
		},
	}

	e := NewEngine(500, 0)
	start, end := runWindow(10)
	res, err := e.Run(strat, history, start, end)
	require.NoError(t, err)

	require.Empty(t, res.Trades)
	for _, p := range res.EquityCurve {
		require.InDelta(t, 500.0, p.Equity, 1e-9)
		require.InDelta(t, 500.0, p.Cash, 1e-9)
	}
}

func TestRunSellWithoutPositionIsNoop(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars([]float64{100, 100, 110}),
	}
	strat := &scripted{
		symbols: []string{"AAPL"},
		script: map[int][]models.Signal{
			2: {{Symbol: "AAPL", Action: models.ActionSell, Qty: 0}},
		},
	}

	e := NewEngine(10000, 0)
	start, end := runWindow(10)
	res, err := e.Run(strat, history, start, end)
	require.NoError(t, err)
	require.Empty(t, res.Trades)
	require.InDelta(t, 10000.0, res.Metrics.FinalEquity, 1e-9)
}

// trendingCloses produces a deterministic wavy series long enough to trigger
// real strategy signals.
func trendingCloses(n int, phase float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3 + 8*math.Sin(float64(i)/7+phase)
	}
	return closes
}

func TestRunIsDeterministic(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars(trendingCloses(120, 0)),
		"MSFT": dailyBars(trendingCloses(120, 2)),
	}
	strat, err := strategy.New(strategy.TypeBollingerBounce, []string{"AAPL", "MSFT"}, map[string]float64{
		"bb_period": 10,
	})
	require.NoError(t, err)

	start, end := runWindow(200)
	first, err := NewEngine(100000, 0.05).Run(strat, history, start, end)
	require.NoError(t, err)
	second, err := NewEngine(100000, 0.05).Run(strat, history, start, end)
	require.NoError(t, err)

	require.Equal(t, first.EquityCurve, second.EquityCurve)
	require.Equal(t, first.Metrics, second.Metrics)
	require.Len(t, second.Trades, len(first.Trades))
	for i := range first.Trades {
		require.Equal(t, *first.Trades[i], *second.Trades[i])
	}
}

func TestRunInvariants(t *testing.T) {
	history := map[string][]models.PriceBar{
		"AAPL": dailyBars([]float64{100, 102, 98, 104, 101, 97, 103, 99, 105, 100}),
	}
	strat := &scripted{
		symbols: []string{"AAPL"},
		script: map[int][]models.Signal{
			2: {{Symbol: "AAPL", Action: models.ActionBuy, Qty: 20}}, // fills @ 102
			4: {{Symbol: "AAPL", Action: models.ActionSell, Qty: 0}}, // fills @ 104, win
			7: {{Symbol: "AAPL", Action: models.ActionBuy, Qty: 15}}, // fills @ 103
			8: {{Symbol: "AAPL", Action: models.ActionSell, Qty: 0}}, // fills @ 99, loss
		},
	}

	start, end := runWindow(20)
	res, err := NewEngine(10000, 0).Run(strat, history, start, end)
	require.NoError(t, err)

	for _, p := range res.EquityCurve {
		require.GreaterOrEqual(t, p.Cash, 0.0)
		require.InDelta(t, p.Cash+p.PositionsValue, p.Equity, 1e-6)
	}
	require.Less(t, res.Metrics.MaxDrawdownPct, 0.0)
	require.Equal(t, 2, res.Metrics.TotalTrades)
	require.Equal(t, res.Metrics.TotalTrades, res.Metrics.WinningTrades+res.Metrics.LosingTrades)
	require.InDelta(t, 40.0, res.Metrics.AvgWin, 1e-9)   // (104-102)*20
	require.InDelta(t, -60.0, res.Metrics.AvgLoss, 1e-9) // (99-103)*15
}
