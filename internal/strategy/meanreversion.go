package strategy

import (
	"fmt"

	"github.com/creasty/defaults"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/indicator"
	"TradeDesk/internal/sizing"
)

// MeanReversionParams holds Mean Reversion RSI tunables.
type MeanReversionParams struct {
	RSIPeriod       float64 `default:"14" validate:"min=5,max=50"`
	RSIOversold     float64 `default:"30" validate:"min=10,max=40"`
	RSIOverbought   float64 `default:"70" validate:"min=60,max=90"`
	MAPeriod        float64 `default:"200" validate:"min=50,max=300"`
	PositionSizePct float64 `default:"10" validate:"gt=0,lte=50"`
}

// MeanReversionRSI buys oversold dips above the long moving average and exits
// the full position once RSI turns overbought.
type MeanReversionRSI struct {
	symbols []string
	params  MeanReversionParams
}

func NewMeanReversionRSI(symbols []string, params map[string]float64) (*MeanReversionRSI, error) {
	var p MeanReversionParams
	if err := defaults.Set(&p); err != nil {
		return nil, fmt.Errorf("mean reversion defaults: %w", err)
	}
	override(&p.RSIPeriod, params, "rsi_period")
	override(&p.RSIOversold, params, "rsi_oversold")
	override(&p.RSIOverbought, params, "rsi_overbought")
	override(&p.MAPeriod, params, "ma_period")
	override(&p.PositionSizePct, params, "position_size_pct")
	return &MeanReversionRSI{symbols: symbols, params: p}, nil
}

func (s *MeanReversionRSI) Name() string      { return "Mean Reversion RSI" }
func (s *MeanReversionRSI) Type() string      { return TypeMeanReversionRSI }
func (s *MeanReversionRSI) Symbols() []string { return s.symbols }

func (s *MeanReversionRSI) Parameters() map[string]float64 {
	return map[string]float64{
		"rsi_period":        s.params.RSIPeriod,
		"rsi_oversold":      s.params.RSIOversold,
		"rsi_overbought":    s.params.RSIOverbought,
		"ma_period":         s.params.MAPeriod,
		"position_size_pct": s.params.PositionSizePct,
	}
}

func (s *MeanReversionRSI) Validate() error { return validateStruct(&s.params) }

func (s *MeanReversionRSI) Analyze(history map[string][]models.PriceBar, portfolioValue float64) []models.Signal {
	var signals []models.Signal
	maPeriod := int(s.params.MAPeriod)

	for _, symbol := range s.symbols {
		bars := history[symbol]
		if len(bars) < maPeriod {
			continue
		}

		c := closes(bars)
		rsi := indicator.RSI(c, int(s.params.RSIPeriod))
		ma := indicator.SMA(c, maPeriod)

		cur := len(bars) - 1
		if !indicator.Defined(rsi, cur) || !indicator.Defined(ma, cur) {
			continue
		}

		switch {
		case rsi[cur] < s.params.RSIOversold && c[cur] > ma[cur]:
			entry := c[cur]
			qty, err := sizing.Shares(entry, portfolioValue, s.params.PositionSizePct)
			if err != nil || qty == 0 {
				continue
			}
			signals = append(signals, models.NewSignal(
				symbol, models.ActionBuy, qty,
				fmt.Sprintf("RSI oversold: %.1f < %.0f, price above %dMA", rsi[cur], s.params.RSIOversold, maPeriod),
				map[string]float64{
					"rsi":                 rsi[cur],
					"ma":                  ma[cur],
					models.MetaEntryPrice: entry,
				},
			))

		case rsi[cur] > s.params.RSIOverbought:
			signals = append(signals, models.NewSignal(
				symbol, models.ActionSell, 0,
				fmt.Sprintf("RSI overbought: %.1f > %.0f", rsi[cur], s.params.RSIOverbought),
				map[string]float64{"rsi": rsi[cur]},
			))
		}
	}
	return signals
}
