package repository

import (
	"context"
	"errors"
	"time"

	"TradeDesk/internal/domain/models"
)

// ErrNoData indicates bars or quotes are unavailable for a symbol. Callers
// skip the affected symbol/cycle; it is never fatal to a loop.
var ErrNoData = errors.New("no market data available")

// ErrNotFound indicates a stored record does not exist.
var ErrNotFound = errors.New("record not found")

// OrderRequest describes an order submission.
type OrderRequest struct {
	Symbol      string
	Qty         int64
	Side        string // "buy" or "sell"
	Type        string // "market" or "limit"
	TimeInForce string // "day", "gtc", "ioc", "fok"
	LimitPrice  float64
}

// Broker is the brokerage capability set the core consumes and never
// implements beyond a single adapter.
type Broker interface {
	GetAccount(ctx context.Context) (*models.Account, error)
	GetPositions(ctx context.Context) ([]*models.Position, error)
	GetBars(ctx context.Context, symbol string, tf Timeframe, start, end time.Time) ([]models.PriceBar, error)
	SubmitOrder(ctx context.Context, req *OrderRequest) (*models.Order, error)
	GetOrders(ctx context.Context, status string) ([]*models.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetLatestTrade(ctx context.Context, symbol string) (*models.Trade, error)
}

// QuoteStream pushes live quotes over a channel. The position monitor
// consumes it when attached, falling back to polling lookups otherwise.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Unsubscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Close() error
	IsConnected() bool
}

// StrategyStore persists strategy configurations across restarts.
type StrategyStore interface {
	Save(ctx context.Context, cfg *models.StrategyConfig) error
	Get(ctx context.Context, id string) (*models.StrategyConfig, error)
	List(ctx context.Context) ([]*models.StrategyConfig, error)
	Delete(ctx context.Context, id string) error
}

// OrderRecord is one submitted order in the history log.
type OrderRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	StrategyID string    `json:"strategy_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        int64     `json:"qty"`
	Reason     string    `json:"reason"`
	OrderID    string    `json:"order_id"`
}

// OrderStore appends and queries the executed-order history.
type OrderStore interface {
	Append(ctx context.Context, rec *OrderRecord) error
	History(ctx context.Context, symbol string, limit int) ([]*OrderRecord, error)
}

// BacktestRecord is one persisted backtest run. ResultJSON carries the full
// result payload (metrics, equity curve, trades) for replay over the API.
type BacktestRecord struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	StrategyType   string    `json:"strategy_type"`
	Symbols        []string  `json:"symbols"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	TotalTrades    int32     `json:"total_trades"`
	ResultJSON     string    `json:"result_json,omitempty"`
}

// BacktestStore persists completed backtest runs.
type BacktestStore interface {
	Save(ctx context.Context, rec *BacktestRecord) error
	List(ctx context.Context, limit int) ([]*BacktestRecord, error)
	Get(ctx context.Context, id string) (*BacktestRecord, error)
}

// Publisher emits order events for downstream consumers.
type Publisher interface {
	PublishOrder(ctx context.Context, rec *OrderRecord) error
	Close() error
}

// Metrics records operational trading metrics.
type Metrics interface {
	RecordSignal(strategyType, symbol, action string)
	RecordOrderSubmitted(side string)
	RecordOrderRejected(reason string)
	RecordCycleDuration(strategyID string, seconds float64)
	RecordEquity(value float64)
	RecordMonitoredPositions(count int)
	RecordError(kind string)
}
