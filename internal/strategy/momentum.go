package strategy

import (
	"fmt"

	"github.com/creasty/defaults"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/indicator"
	"TradeDesk/internal/sizing"
)

// MomentumParams holds Momentum Breakout tunables.
type MomentumParams struct {
	LookbackPeriod   float64 `default:"20" validate:"min=5,max=100"`
	VolumeMultiplier float64 `default:"1.5" validate:"min=1,max=5"`
	PositionSizePct  float64 `default:"10" validate:"gt=0,lte=50"`
	StopLossPct      float64 `default:"5" validate:"gt=0,lt=100"`
	TakeProfitPct    float64 `default:"15" validate:"gt=0,lte=100"`
	MaxPositions     float64 `default:"5" validate:"min=1,max=50"`
}

// MomentumBreakout buys when the close breaks above the prior N-day rolling
// high on elevated volume, attaching stop-loss/take-profit offsets to the
// signal for the position monitor.
type MomentumBreakout struct {
	symbols []string
	params  MomentumParams
}

func NewMomentumBreakout(symbols []string, params map[string]float64) (*MomentumBreakout, error) {
	var p MomentumParams
	if err := defaults.Set(&p); err != nil {
		return nil, fmt.Errorf("momentum defaults: %w", err)
	}
	override(&p.LookbackPeriod, params, "lookback_period")
	override(&p.VolumeMultiplier, params, "volume_multiplier")
	override(&p.PositionSizePct, params, "position_size_pct")
	override(&p.StopLossPct, params, "stop_loss_pct")
	override(&p.TakeProfitPct, params, "take_profit_pct")
	override(&p.MaxPositions, params, "max_positions")
	return &MomentumBreakout{symbols: symbols, params: p}, nil
}

func (s *MomentumBreakout) Name() string      { return "Momentum Breakout" }
func (s *MomentumBreakout) Type() string      { return TypeMomentumBreakout }
func (s *MomentumBreakout) Symbols() []string { return s.symbols }

func (s *MomentumBreakout) Parameters() map[string]float64 {
	return map[string]float64{
		"lookback_period":   s.params.LookbackPeriod,
		"volume_multiplier": s.params.VolumeMultiplier,
		"position_size_pct": s.params.PositionSizePct,
		"stop_loss_pct":     s.params.StopLossPct,
		"take_profit_pct":   s.params.TakeProfitPct,
		"max_positions":     s.params.MaxPositions,
	}
}

func (s *MomentumBreakout) Validate() error { return validateStruct(&s.params) }

func (s *MomentumBreakout) Analyze(history map[string][]models.PriceBar, portfolioValue float64) []models.Signal {
	var signals []models.Signal
	lookback := int(s.params.LookbackPeriod)

	for _, symbol := range s.symbols {
		bars := history[symbol]
		if len(bars) < lookback+1 {
			continue
		}

		highN := indicator.RollingMax(highs(bars), lookback)
		avgVol := indicator.SMA(volumes(bars), lookback)

		cur := len(bars) - 1
		prev := cur - 1
		if !indicator.Defined(highN, prev) || !indicator.Defined(avgVol, cur) {
			continue
		}

		breakout := bars[cur].Close > highN[prev] &&
			bars[cur].Volume > s.params.VolumeMultiplier*avgVol[cur]
		if !breakout {
			continue
		}

		entry := bars[cur].Close
		qty, err := sizing.Shares(entry, portfolioValue, s.params.PositionSizePct)
		if err != nil || qty == 0 {
			continue
		}

		signals = append(signals, models.NewSignal(
			symbol, models.ActionBuy, qty,
			fmt.Sprintf("Momentum breakout: price %.2f > %dd high %.2f", entry, lookback, highN[prev]),
			map[string]float64{
				models.MetaEntryPrice: entry,
				models.MetaStopLoss:   entry * (1 - s.params.StopLossPct/100),
				models.MetaTakeProfit: entry * (1 + s.params.TakeProfitPct/100),
			},
		))
	}
	return signals
}
