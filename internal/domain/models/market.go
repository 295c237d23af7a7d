package models

import "time"

// PriceBar is a single OHLCV bar. Sequences are ordered ascending by
// timestamp and treated as immutable once fetched.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Quote is the latest bid/ask for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	BidPrice  float64   `json:"bid_price"`
	AskPrice  float64   `json:"ask_price"`
	BidSize   int64     `json:"bid_size"`
	AskSize   int64     `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Trade is the latest executed trade for a symbol.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Account is the brokerage account snapshot used for position sizing.
type Account struct {
	AccountNumber string  `json:"account_number"`
	Equity        float64 `json:"equity"`
	Cash          float64 `json:"cash"`
	BuyingPower   float64 `json:"buying_power"`
	Status        string  `json:"status"`
}

// Position is a broker-confirmed holding.
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           int64   `json:"qty"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
}

// Order is a brokerage order confirmation.
type Order struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Qty            int64      `json:"qty"`
	FilledQty      int64      `json:"filled_qty"`
	Side           string     `json:"side"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	FilledAvgPrice float64    `json:"filled_avg_price"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}
