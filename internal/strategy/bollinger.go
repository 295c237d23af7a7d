package strategy

import (
	"fmt"

	"github.com/creasty/defaults"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/indicator"
	"TradeDesk/internal/sizing"
)

// BollingerParams holds Bollinger Bounce tunables.
type BollingerParams struct {
	Period          float64 `default:"20" validate:"min=10,max=100"`
	StdDev          float64 `default:"2" validate:"min=1,max=3"`
	PositionSizePct float64 `default:"10" validate:"gt=0,lte=50"`
}

// BollingerBounce buys a confirmed bounce off the lower band (previous close
// at/below the band, current close recovered above it while still under the
// middle band) and sells when price reaches the upper band or crosses back
// above the middle band from below.
type BollingerBounce struct {
	symbols []string
	params  BollingerParams
}

func NewBollingerBounce(symbols []string, params map[string]float64) (*BollingerBounce, error) {
	var p BollingerParams
	if err := defaults.Set(&p); err != nil {
		return nil, fmt.Errorf("bollinger defaults: %w", err)
	}
	override(&p.Period, params, "bb_period")
	override(&p.StdDev, params, "bb_std_dev")
	override(&p.PositionSizePct, params, "position_size_pct")
	return &BollingerBounce{symbols: symbols, params: p}, nil
}

func (s *BollingerBounce) Name() string      { return "Bollinger Band Bounce" }
func (s *BollingerBounce) Type() string      { return TypeBollingerBounce }
func (s *BollingerBounce) Symbols() []string { return s.symbols }

func (s *BollingerBounce) Parameters() map[string]float64 {
	return map[string]float64{
		"bb_period":         s.params.Period,
		"bb_std_dev":        s.params.StdDev,
		"position_size_pct": s.params.PositionSizePct,
	}
}

func (s *BollingerBounce) Validate() error { return validateStruct(&s.params) }

func (s *BollingerBounce) Analyze(history map[string][]models.PriceBar, portfolioValue float64) []models.Signal {
	var signals []models.Signal
	period := int(s.params.Period)

	for _, symbol := range s.symbols {
		bars := history[symbol]
		if len(bars) < period+2 {
			continue
		}

		c := closes(bars)
		sma := indicator.SMA(c, period)
		std := indicator.Std(c, period)

		cur := len(bars) - 1
		prev := cur - 1
		if !indicator.Defined(sma, prev) || !indicator.Defined(std, prev) {
			continue
		}

		upperCur := sma[cur] + std[cur]*s.params.StdDev
		lowerCur := sma[cur] - std[cur]*s.params.StdDev
		lowerPrev := sma[prev] - std[prev]*s.params.StdDev

		bounce := c[prev] <= lowerPrev && c[cur] > lowerCur && c[cur] < sma[cur]
		exit := c[cur] >= upperCur || (c[prev] < sma[prev] && c[cur] >= sma[cur])

		switch {
		case bounce:
			entry := c[cur]
			qty, err := sizing.Shares(entry, portfolioValue, s.params.PositionSizePct)
			if err != nil || qty == 0 {
				continue
			}
			signals = append(signals, models.NewSignal(
				symbol, models.ActionBuy, qty,
				fmt.Sprintf("Bollinger bounce: price recovered above lower band %.2f", lowerCur),
				map[string]float64{
					models.MetaEntryPrice: entry,
					"lower_band":          lowerCur,
					"upper_band":          upperCur,
					"sma":                 sma[cur],
				},
			))

		case exit:
			signals = append(signals, models.NewSignal(
				symbol, models.ActionSell, 0,
				"Bollinger exit: price reached upper band or crossed middle band",
				map[string]float64{
					models.MetaExitPrice: c[cur],
					"upper_band":         upperCur,
				},
			))
		}
	}
	return signals
}
