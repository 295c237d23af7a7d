package strategy

import (
	"fmt"

	"github.com/creasty/defaults"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/indicator"
	"TradeDesk/internal/sizing"
)

// DualMAParams holds Dual Moving Average tunables. The fast period must stay
// below the slow period.
type DualMAParams struct {
	FastMA          float64 `default:"50" validate:"min=5,max=200,ltfield=SlowMA"`
	SlowMA          float64 `default:"200" validate:"min=50,max=500"`
	TrendMA         float64 `default:"20" validate:"min=5,max=200"`
	PositionSizePct float64 `default:"20" validate:"gt=0,lte=50"`
}

// DualMovingAverage buys the golden cross (fast MA crossing above slow MA
// with price above the trend filter) and exits the full position on the death
// cross. Crossings compare the sign of fast-slow between the last two bars.
type DualMovingAverage struct {
	symbols []string
	params  DualMAParams
}

func NewDualMovingAverage(symbols []string, params map[string]float64) (*DualMovingAverage, error) {
	var p DualMAParams
	if err := defaults.Set(&p); err != nil {
		return nil, fmt.Errorf("dual ma defaults: %w", err)
	}
	override(&p.FastMA, params, "fast_ma")
	override(&p.SlowMA, params, "slow_ma")
	override(&p.TrendMA, params, "trend_ma")
	override(&p.PositionSizePct, params, "position_size_pct")
	return &DualMovingAverage{symbols: symbols, params: p}, nil
}

func (s *DualMovingAverage) Name() string      { return "Dual Moving Average" }
func (s *DualMovingAverage) Type() string      { return TypeDualMovingAverage }
func (s *DualMovingAverage) Symbols() []string { return s.symbols }

func (s *DualMovingAverage) Parameters() map[string]float64 {
	return map[string]float64{
		"fast_ma":           s.params.FastMA,
		"slow_ma":           s.params.SlowMA,
		"trend_ma":          s.params.TrendMA,
		"position_size_pct": s.params.PositionSizePct,
	}
}

func (s *DualMovingAverage) Validate() error { return validateStruct(&s.params) }

func (s *DualMovingAverage) Analyze(history map[string][]models.PriceBar, portfolioValue float64) []models.Signal {
	var signals []models.Signal
	fast := int(s.params.FastMA)
	slow := int(s.params.SlowMA)
	trend := int(s.params.TrendMA)

	for _, symbol := range s.symbols {
		bars := history[symbol]
		if len(bars) < slow+1 {
			continue
		}

		c := closes(bars)
		fastMA := indicator.SMA(c, fast)
		slowMA := indicator.SMA(c, slow)
		trendMA := indicator.SMA(c, trend)

		cur := len(bars) - 1
		prev := cur - 1
		if !indicator.Defined(slowMA, prev) || !indicator.Defined(trendMA, cur) {
			continue
		}

		goldenCross := fastMA[prev] <= slowMA[prev] && fastMA[cur] > slowMA[cur]
		deathCross := fastMA[prev] >= slowMA[prev] && fastMA[cur] < slowMA[cur]

		switch {
		case goldenCross && c[cur] > trendMA[cur]:
			entry := c[cur]
			qty, err := sizing.Shares(entry, portfolioValue, s.params.PositionSizePct)
			if err != nil || qty == 0 {
				continue
			}
			signals = append(signals, models.NewSignal(
				symbol, models.ActionBuy, qty,
				fmt.Sprintf("Golden cross: %dMA crossed above %dMA, price above %dMA trend filter", fast, slow, trend),
				map[string]float64{
					"fast_ma":             fastMA[cur],
					"slow_ma":             slowMA[cur],
					models.MetaEntryPrice: entry,
				},
			))

		case deathCross:
			signals = append(signals, models.NewSignal(
				symbol, models.ActionSell, 0,
				fmt.Sprintf("Death cross: %dMA crossed below %dMA", fast, slow),
				map[string]float64{
					"fast_ma": fastMA[cur],
					"slow_ma": slowMA[cur],
				},
			))
		}
	}
	return signals
}
