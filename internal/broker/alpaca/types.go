package alpaca

import (
	"strconv"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
)

// Alpaca returns most numeric account/position fields as JSON strings.

type wireAccount struct {
	AccountNumber string `json:"account_number"`
	Equity        string `json:"equity"`
	Cash          string `json:"cash"`
	BuyingPower   string `json:"buying_power"`
	Status        string `json:"status"`
}

func (a *wireAccount) toModel() *models.Account {
	return &models.Account{
		AccountNumber: a.AccountNumber,
		Equity:        parseFloat(a.Equity),
		Cash:          parseFloat(a.Cash),
		BuyingPower:   parseFloat(a.BuyingPower),
		Status:        a.Status,
	}
}

type wirePosition struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
	UnrealizedPL  string `json:"unrealized_pl"`
}

func (p *wirePosition) toModel() *models.Position {
	return &models.Position{
		Symbol:        p.Symbol,
		Qty:           parseInt(p.Qty),
		AvgEntryPrice: parseFloat(p.AvgEntryPrice),
		CurrentPrice:  parseFloat(p.CurrentPrice),
		MarketValue:   parseFloat(p.MarketValue),
		UnrealizedPL:  parseFloat(p.UnrealizedPL),
	}
}

type wireOrder struct {
	ID             string     `json:"id"`
	Symbol         string     `json:"symbol"`
	Qty            string     `json:"qty"`
	FilledQty      string     `json:"filled_qty"`
	Side           string     `json:"side"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	FilledAvgPrice string     `json:"filled_avg_price"`
	CreatedAt      *time.Time `json:"created_at"`
}

func (o *wireOrder) toModel() *models.Order {
	return &models.Order{
		ID:             o.ID,
		Symbol:         o.Symbol,
		Qty:            parseInt(o.Qty),
		FilledQty:      parseInt(o.FilledQty),
		Side:           o.Side,
		Type:           o.Type,
		Status:         o.Status,
		FilledAvgPrice: parseFloat(o.FilledAvgPrice),
		CreatedAt:      o.CreatedAt,
	}
}

type wireOrderRequest struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	LimitPrice  string `json:"limit_price,omitempty"`
}

func orderRequestToWire(req *repository.OrderRequest) *wireOrderRequest {
	w := &wireOrderRequest{
		Symbol:      req.Symbol,
		Qty:         strconv.FormatInt(req.Qty, 10),
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
	}
	if w.Type == "" {
		w.Type = "market"
	}
	if w.TimeInForce == "" {
		w.TimeInForce = "day"
	}
	if req.LimitPrice > 0 {
		w.LimitPrice = strconv.FormatFloat(req.LimitPrice, 'f', -1, 64)
	}
	return w
}

type wireBar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type wireBarsResponse struct {
	Bars          []wireBar `json:"bars"`
	NextPageToken *string   `json:"next_page_token"`
}

func (b *wireBar) toModel() models.PriceBar {
	return models.PriceBar{
		Timestamp: b.Timestamp,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

type wireQuote struct {
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
	BidSize   int64     `json:"bs"`
	AskSize   int64     `json:"as"`
	Timestamp time.Time `json:"t"`
}

type wireQuoteResponse struct {
	Symbol string    `json:"symbol"`
	Quote  wireQuote `json:"quote"`
}

func (r *wireQuoteResponse) toModel() *models.Quote {
	return &models.Quote{
		Symbol:    r.Symbol,
		BidPrice:  r.Quote.BidPrice,
		AskPrice:  r.Quote.AskPrice,
		BidSize:   r.Quote.BidSize,
		AskSize:   r.Quote.AskSize,
		Timestamp: r.Quote.Timestamp,
	}
}

type wireTrade struct {
	Price     float64   `json:"p"`
	Size      int64     `json:"s"`
	Timestamp time.Time `json:"t"`
}

type wireTradeResponse struct {
	Symbol string    `json:"symbol"`
	Trade  wireTrade `json:"trade"`
}

func (r *wireTradeResponse) toModel() *models.Trade {
	return &models.Trade{
		Symbol:    r.Symbol,
		Price:     r.Trade.Price,
		Size:      r.Trade.Size,
		Timestamp: r.Trade.Timestamp,
	}
}

// timeframeParam maps internal timeframes onto Alpaca's bar API values.
func timeframeParam(tf repository.Timeframe) string {
	switch tf {
	case repository.TF1Min:
		return "1Min"
	case repository.TF5Min:
		return "5Min"
	case repository.TF15Min:
		return "15Min"
	case repository.TF1Hour:
		return "1Hour"
	default:
		return "1Day"
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	// Position quantities may arrive fractional; truncate toward zero.
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return v
	}
	f, _ := strconv.ParseFloat(s, 64)
	return int64(f)
}
