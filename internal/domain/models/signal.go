package models

import "time"

// SignalAction is the proposed order side.
type SignalAction string

const (
	ActionBuy  SignalAction = "buy"
	ActionSell SignalAction = "sell"
)

// Metadata keys attached to signals by strategies and the position monitor.
const (
	MetaEntryPrice = "entry_price"
	MetaExitPrice  = "exit_price"
	MetaStopLoss   = "stop_loss"
	MetaTakeProfit = "take_profit"
	MetaPnLPct     = "pnl_pct"
)

// Signal is a proposed trade produced by a strategy or the position monitor
// and consumed exactly once by the scheduler or the backtest engine.
// Qty == 0 on a sell means "close the full position".
type Signal struct {
	Symbol    string             `json:"symbol"`
	Action    SignalAction       `json:"action"`
	Qty       int64              `json:"qty"`
	Reason    string             `json:"reason"`
	Metadata  map[string]float64 `json:"metadata,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewSignal builds a signal stamped with the current time.
func NewSignal(symbol string, action SignalAction, qty int64, reason string, metadata map[string]float64) Signal {
	if metadata == nil {
		metadata = map[string]float64{}
	}
	return Signal{
		Symbol:    symbol,
		Action:    action,
		Qty:       qty,
		Reason:    reason,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// Meta returns a metadata value and whether it was present.
func (s *Signal) Meta(key string) (float64, bool) {
	v, ok := s.Metadata[key]
	return v, ok
}
