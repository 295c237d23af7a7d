// Package monitor tracks open positions against stop-loss and take-profit
// levels and emits exit signals when either level is breached.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/pkg/logger"
)

var (
	// ErrNoExitLevels indicates a track request with neither stop-loss nor
	// take-profit set.
	ErrNoExitLevels = errors.New("position needs a stop-loss or take-profit level")

	// ErrInvalidPosition indicates a non-positive quantity or entry price.
	ErrInvalidPosition = errors.New("position needs a positive quantity and entry price")
)

// TrackedPosition is one monitored holding. A zero StopLoss or TakeProfit
// means the level is not armed.
type TrackedPosition struct {
	Symbol     string  `json:"symbol"`
	Qty        int64   `json:"qty"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// Monitor watches tracked positions. Price discovery prefers quotes pushed
// over an attached stream, then falls back to broker lookups: the bid/ask
// midpoint, a single available side, and finally the last trade.
type Monitor struct {
	broker repository.Broker
	log    *logger.Logger

	mu        sync.Mutex
	positions map[string]*TrackedPosition
	pushed    map[string]*models.Quote
}

func New(broker repository.Broker, log *logger.Logger) *Monitor {
	return &Monitor{
		broker:    broker,
		log:       log,
		positions: make(map[string]*TrackedPosition),
		pushed:    make(map[string]*models.Quote),
	}
}

// Track registers a position. Re-tracking a symbol replaces its levels.
func (m *Monitor) Track(symbol string, qty int64, entryPrice, stopLoss, takeProfit float64) error {
	if qty <= 0 || entryPrice <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, symbol)
	}
	if stopLoss <= 0 && takeProfit <= 0 {
		return fmt.Errorf("%w: %s", ErrNoExitLevels, symbol)
	}

	m.mu.Lock()
	m.positions[symbol] = &TrackedPosition{
		Symbol:     symbol,
		Qty:        qty,
		EntryPrice: entryPrice,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	m.mu.Unlock()

	m.log.Info("tracking position",
		logger.String("symbol", symbol),
		logger.Int64("qty", qty),
		logger.Float64("entry_price", entryPrice),
		logger.Float64("stop_loss", stopLoss),
		logger.Float64("take_profit", takeProfit))
	return nil
}

// UpdateQuantity adjusts the tracked size after partial exits. A quantity of
// zero or less removes the position.
func (m *Monitor) UpdateQuantity(symbol string, qty int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[symbol]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(m.positions, symbol)
		return
	}
	p.Qty = qty
}

// Untrack removes a symbol from the registry.
func (m *Monitor) Untrack(symbol string) {
	m.mu.Lock()
	delete(m.positions, symbol)
	m.mu.Unlock()
}

// Tracked returns a snapshot of the registry sorted by symbol.
func (m *Monitor) Tracked() []TrackedPosition {
	m.mu.Lock()
	out := make([]TrackedPosition, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len reports how many positions are being watched.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// Check evaluates every tracked position once and returns exit signals for
// breached levels. Triggered positions are removed immediately so a slow
// order path cannot produce duplicate exits. Symbols without a retrievable
// price are skipped until the next pass.
func (m *Monitor) Check(ctx context.Context) []models.Signal {
	snapshot := m.Tracked()
	if len(snapshot) == 0 {
		return nil
	}

	var signals []models.Signal
	for _, p := range snapshot {
		price, err := m.currentPrice(ctx, p.Symbol)
		if err != nil {
			m.log.Warn("no price for monitored position",
				logger.String("symbol", p.Symbol),
				logger.Error(err))
			continue
		}

		sig, ok := evaluate(&p, price)
		if !ok {
			continue
		}
		m.Untrack(p.Symbol)
		m.log.Info("exit level breached",
			logger.String("symbol", p.Symbol),
			logger.Float64("price", price),
			logger.String("reason", sig.Reason))
		signals = append(signals, sig)
	}
	return signals
}

func evaluate(p *TrackedPosition, price float64) (models.Signal, bool) {
	pnlPct := (price - p.EntryPrice) / p.EntryPrice * 100

	switch {
	case p.StopLoss > 0 && price <= p.StopLoss:
		return models.NewSignal(p.Symbol, models.ActionSell, 0,
			fmt.Sprintf("Stop loss hit: %.2f <= %.2f", price, p.StopLoss),
			map[string]float64{
				models.MetaExitPrice: price,
				models.MetaStopLoss:  p.StopLoss,
				models.MetaPnLPct:    pnlPct,
			}), true

	case p.TakeProfit > 0 && price >= p.TakeProfit:
		return models.NewSignal(p.Symbol, models.ActionSell, 0,
			fmt.Sprintf("Take profit hit: %.2f >= %.2f", price, p.TakeProfit),
			map[string]float64{
				models.MetaExitPrice:  price,
				models.MetaTakeProfit: p.TakeProfit,
				models.MetaPnLPct:     pnlPct,
			}), true
	}
	return models.Signal{}, false
}

// ConsumeQuotes drains a quote stream into the pushed-price cache until the
// context is cancelled or the stream fails. Run it in its own goroutine.
func (m *Monitor) ConsumeQuotes(ctx context.Context, stream repository.QuoteStream) {
	quotes, errs := stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.log.Warn("quote stream error", logger.Error(err))
		case q, ok := <-quotes:
			if !ok {
				return
			}
			m.mu.Lock()
			m.pushed[q.Symbol] = q
			m.mu.Unlock()
		}
	}
}

func (m *Monitor) currentPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	pushed := m.pushed[symbol]
	m.mu.Unlock()
	if price, ok := quotePrice(pushed); ok {
		return price, nil
	}

	quote, err := m.broker.GetLatestQuote(ctx, symbol)
	if err == nil {
		if price, ok := quotePrice(quote); ok {
			return price, nil
		}
	}

	trade, err := m.broker.GetLatestTrade(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("latest trade %s: %w", symbol, err)
	}
	if trade.Price <= 0 {
		return 0, fmt.Errorf("%w: %s", repository.ErrNoData, symbol)
	}
	return trade.Price, nil
}

func quotePrice(q *models.Quote) (float64, bool) {
	switch {
	case q == nil:
		return 0, false
	case q.BidPrice > 0 && q.AskPrice > 0:
		return (q.BidPrice + q.AskPrice) / 2, true
	case q.AskPrice > 0:
		return q.AskPrice, true
	case q.BidPrice > 0:
		return q.BidPrice, true
	}
	return 0, false
}
