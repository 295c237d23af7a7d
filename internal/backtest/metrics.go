package backtest

import (
	"math"
	"time"

	"TradeDesk/internal/domain/models"
)

const tradingDaysPerYear = 252

// Metrics summarises a completed run. Percentages are expressed as
// percentages, not fractions; MaxDrawdownPct is zero or negative. AvgWin and
// AvgLoss are mean dollar PnL over the winning and losing trade subsets.
type Metrics struct {
	TotalReturnPct       float64 `json:"total_return_pct"`
	BuyAndHoldReturnPct  float64 `json:"buy_and_hold_return_pct"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	FinalEquity          float64 `json:"final_equity"`
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	WinRatePct           float64 `json:"win_rate_pct"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"`
	AvgHoldingDays       float64 `json:"avg_holding_days"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

func computeMetrics(initial, final float64, curve []EquityPoint, trades []*Order, benchmark []models.PriceBar, start, end time.Time) Metrics {
	m := Metrics{
		TotalReturnPct: (final - initial) / initial * 100,
		FinalEquity:    final,
	}

	m.BuyAndHoldReturnPct = buyAndHoldReturn(benchmark, start, end)
	m.MaxDrawdownPct = maxDrawdown(curve)
	m.SharpeRatio = sharpeRatio(curve)

	wins, losses := 0, 0
	winSum, lossSum := 0.0, 0.0
	holdingDaysSum := 0.0
	streak, maxWinStreak, maxLossStreak := 0, 0, 0
	lastWasWin := false

	for _, tr := range trades {
		if tr.ExitDate != nil {
			holdingDaysSum += tr.ExitDate.Sub(tr.EntryDate).Hours() / 24
		}
		win := tr.PnL > 0
		if win {
			wins++
			winSum += tr.PnL
		} else {
			losses++
			lossSum += tr.PnL
		}
		if streak == 0 || win == lastWasWin {
			streak++
		} else {
			streak = 1
		}
		lastWasWin = win
		if win && streak > maxWinStreak {
			maxWinStreak = streak
		}
		if !win && streak > maxLossStreak {
			maxLossStreak = streak
		}
	}

	m.TotalTrades = len(trades)
	m.WinningTrades = wins
	m.LosingTrades = losses
	m.MaxConsecutiveWins = maxWinStreak
	m.MaxConsecutiveLosses = maxLossStreak
	if len(trades) > 0 {
		m.WinRatePct = float64(wins) / float64(len(trades)) * 100
		m.AvgHoldingDays = holdingDaysSum / float64(len(trades))
	}
	if wins > 0 {
		m.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = lossSum / float64(losses)
	}
	return m
}

// maxDrawdown is the worst peak-to-trough decline of the equity curve,
// reported as a non-positive percentage.
func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpeRatio annualises the mean daily return over its standard deviation.
// Zero when fewer than two returns exist or the returns are constant.
func sharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			return 0
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	if variance <= 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

func buyAndHoldReturn(benchmark []models.PriceBar, start, end time.Time) float64 {
	var first, last float64
	seen := false
	for _, b := range benchmark {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		if !seen {
			first = b.Close
			seen = true
		}
		last = b.Close
	}
	if !seen || first == 0 {
		return 0
	}
	return (last - first) / first * 100
}
