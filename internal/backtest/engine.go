// Package backtest replays price history through a strategy day by day with
// slippage and realistic portfolio accounting. Runs are synchronous and
// deterministic: identical inputs produce identical equity curves.
package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/strategy"
)

var (
	// ErrBadRange indicates an end date at or before the start date.
	ErrBadRange = errors.New("end date must be after start date")

	// ErrEmptyData indicates no usable bars for the requested range.
	ErrEmptyData = errors.New("no price data in requested range")
)

// Order is a simulated fill. Closed orders are immutable and feed metrics.
type Order struct {
	Symbol     string     `json:"symbol"`
	Qty        int64      `json:"qty"`
	Side       string     `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	EntryDate  time.Time  `json:"entry_date"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	PnL        float64    `json:"pnl"`
	PnLPct     float64    `json:"pnl_pct"`
}

// EquityPoint is one mark-to-market sample of the equity curve.
type EquityPoint struct {
	Date           time.Time `json:"date"`
	Equity         float64   `json:"equity"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	ProfitLoss     float64   `json:"profit_loss"`
	ProfitLossPct  float64   `json:"profit_loss_pct"`
}

// Result bundles a finished run.
type Result struct {
	StrategyType   string        `json:"strategy_type"`
	Symbols        []string      `json:"symbols"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	InitialCapital float64       `json:"initial_capital"`
	Metrics        Metrics       `json:"metrics"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	Trades         []*Order      `json:"trades"`
}

// Engine simulates strategy execution over stored history.
type Engine struct {
	initialCapital float64
	slippagePct    float64

	cash   float64
	equity float64
	open   []*Order
	closed []*Order
	curve  []EquityPoint
}

// NewEngine creates a simulator. slippagePct is a percentage (0.05 = 5bps)
// applied against the fill on both entries and exits.
func NewEngine(initialCapital, slippagePct float64) *Engine {
	return &Engine{initialCapital: initialCapital, slippagePct: slippagePct}
}

// Run replays [start, end] through the strategy. The first configured symbol
// defines the trading calendar; symbols without a bar on a given day are
// skipped for that day.
func (e *Engine) Run(strat strategy.Strategy, history map[string][]models.PriceBar, start, end time.Time) (*Result, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: %s .. %s", ErrBadRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	e.cash = e.initialCapital
	e.equity = e.initialCapital
	e.open = nil
	e.closed = nil
	e.curve = nil

	days := tradingDays(strat.Symbols(), history, start, end)
	if len(days) == 0 {
		return nil, ErrEmptyData
	}
	prices := priceIndex(history)

	for _, day := range days {
		window := sliceHistory(history, start, day)

		// Equity from the previous mark funds sizing for today's entries.
		signals := strat.Analyze(window, e.equity)
		for i := range signals {
			e.executeSignal(&signals[i], day, prices)
		}

		e.markToMarket(day, prices)
	}

	res := &Result{
		StrategyType:   strat.Type(),
		Symbols:        append([]string(nil), strat.Symbols()...),
		Start:          start,
		End:            end,
		InitialCapital: e.initialCapital,
		Metrics:        computeMetrics(e.initialCapital, e.equity, e.curve, e.closed, firstSymbolSeries(strat.Symbols(), history), start, end),
		EquityCurve:    e.curve,
		Trades:         e.closed,
	}
	return res, nil
}

func (e *Engine) executeSignal(sig *models.Signal, day time.Time, prices priceLookup) {
	bar, ok := prices.at(sig.Symbol, day)
	if !ok {
		return
	}

	switch sig.Action {
	case models.ActionBuy:
		price := bar.Close * (1 + e.slippagePct/100)
		cost := price * float64(sig.Qty)
		if sig.Qty <= 0 || cost > e.cash {
			return // unfunded buys are rejected, not partially filled
		}
		e.cash -= cost
		e.open = append(e.open, &Order{
			Symbol:     sig.Symbol,
			Qty:        sig.Qty,
			Side:       "buy",
			EntryPrice: price,
			EntryDate:  day,
		})

	case models.ActionSell:
		price := bar.Close * (1 - e.slippagePct/100)
		remaining := e.open[:0]
		for _, o := range e.open {
			if o.Symbol != sig.Symbol {
				remaining = append(remaining, o)
				continue
			}
			exitDay := day
			o.ExitPrice = price
			o.ExitDate = &exitDay
			o.PnL = (price - o.EntryPrice) * float64(o.Qty)
			o.PnLPct = (price - o.EntryPrice) / o.EntryPrice * 100
			e.cash += price * float64(o.Qty)
			e.closed = append(e.closed, o)
		}
		e.open = remaining
	}
}

func (e *Engine) markToMarket(day time.Time, prices priceLookup) {
	positionsValue := 0.0
	for _, o := range e.open {
		if bar, ok := prices.at(o.Symbol, day); ok {
			positionsValue += bar.Close * float64(o.Qty)
		} else {
			positionsValue += o.EntryPrice * float64(o.Qty)
		}
	}
	e.equity = e.cash + positionsValue
	e.curve = append(e.curve, EquityPoint{
		Date:           day,
		Equity:         e.equity,
		Cash:           e.cash,
		PositionsValue: positionsValue,
		ProfitLoss:     e.equity - e.initialCapital,
		ProfitLossPct:  (e.equity - e.initialCapital) / e.initialCapital * 100,
	})
}

// priceLookup indexes bars by symbol and calendar day.
type priceLookup map[string]map[string]models.PriceBar

func priceIndex(history map[string][]models.PriceBar) priceLookup {
	idx := make(priceLookup, len(history))
	for symbol, bars := range history {
		m := make(map[string]models.PriceBar, len(bars))
		for _, b := range bars {
			m[dayKey(b.Timestamp)] = b
		}
		idx[symbol] = m
	}
	return idx
}

func (p priceLookup) at(symbol string, day time.Time) (models.PriceBar, bool) {
	bars, ok := p[symbol]
	if !ok {
		return models.PriceBar{}, false
	}
	b, ok := bars[dayKey(day)]
	return b, ok
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// tradingDays derives the calendar from the first configured symbol that has
// data, filtered to [start, end].
func tradingDays(symbols []string, history map[string][]models.PriceBar, start, end time.Time) []time.Time {
	series := firstSymbolSeries(symbols, history)
	var days []time.Time
	for _, b := range series {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		days = append(days, b.Timestamp)
	}
	return days
}

func firstSymbolSeries(symbols []string, history map[string][]models.PriceBar) []models.PriceBar {
	for _, s := range symbols {
		if bars := history[s]; len(bars) > 0 {
			return bars
		}
	}
	// Fall back to sorted map keys so the pick never depends on map order.
	keys := make([]string, 0, len(history))
	for k := range history {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if bars := history[k]; len(bars) > 0 {
			return bars
		}
	}
	return nil
}

func sliceHistory(history map[string][]models.PriceBar, start, current time.Time) map[string][]models.PriceBar {
	out := make(map[string][]models.PriceBar, len(history))
	for symbol, bars := range history {
		lo := sort.Search(len(bars), func(i int) bool { return !bars[i].Timestamp.Before(start) })
		hi := sort.Search(len(bars), func(i int) bool { return bars[i].Timestamp.After(current) })
		if lo < hi {
			out[symbol] = bars[lo:hi]
		}
	}
	return out
}
