// Package alpaca binds the brokerage interface to the Alpaca trading and
// market-data REST APIs, with a websocket quote stream for live prices.
package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/service/ratelimit"
	httpclient "TradeDesk/pkg/http"
	"TradeDesk/pkg/logger"
)

// ErrNotAuthenticated indicates rejected or missing API credentials. It is
// fatal to the failing operation only.
var ErrNotAuthenticated = errors.New("alpaca: not authenticated")

const (
	rateKey = "alpaca-rest"

	// Alpaca allows 200 requests/minute per key.
	rateCapacity  = 200
	ratePerSecond = 200.0 / 60.0
)

// Config holds connection settings for the REST and data APIs.
type Config struct {
	BaseURL string // e.g. https://paper-api.alpaca.markets
	DataURL string // e.g. https://data.alpaca.markets
	Feed    string // iex or sip
	Key     string
	Secret  string
	Timeout time.Duration
}

// Client implements repository.Broker against Alpaca.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewClient(cfg Config, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Feed == "" {
		cfg.Feed = "iex"
	}
	return &Client{
		cfg:     cfg,
		http:    httpclient.NewClient(httpclient.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		log:     log,
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"APCA-API-KEY-ID":     c.cfg.Key,
		"APCA-API-SECRET-KEY": c.cfg.Secret,
	}
}

// do sends one authenticated request and decodes the JSON response into
// dest, mapping auth failures to ErrNotAuthenticated.
func (c *Client) do(ctx context.Context, method, url string, query map[string][]string, body, dest interface{}) error {
	if c.cfg.Key == "" || c.cfg.Secret == "" {
		return ErrNotAuthenticated
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rateKey, rateCapacity, ratePerSecond); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.http.SendRequest(ctx, &httpclient.RequestOptions{
		Method:      method,
		URL:         url,
		Headers:     c.headers(),
		QueryParams: query,
		Body:        body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", repository.ErrNoData, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("alpaca: status %d: %s", resp.StatusCode, payload)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) GetAccount(ctx context.Context) (*models.Account, error) {
	var acct wireAccount
	if err := c.do(ctx, httpclient.MethodGet, c.cfg.BaseURL+"/v2/account", nil, nil, &acct); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acct.toModel(), nil
}

func (c *Client) GetPositions(ctx context.Context) ([]*models.Position, error) {
	var wire []wirePosition
	if err := c.do(ctx, httpclient.MethodGet, c.cfg.BaseURL+"/v2/positions", nil, nil, &wire); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	positions := make([]*models.Position, 0, len(wire))
	for i := range wire {
		positions = append(positions, wire[i].toModel())
	}
	return positions, nil
}

// GetBars pages through the bar API until the range is exhausted.
func (c *Client) GetBars(ctx context.Context, symbol string, tf repository.Timeframe, start, end time.Time) ([]models.PriceBar, error) {
	url := fmt.Sprintf("%s/v2/stocks/%s/bars", c.cfg.DataURL, symbol)
	query := map[string][]string{
		"timeframe":  {timeframeParam(tf)},
		"start":      {start.UTC().Format(time.RFC3339)},
		"end":        {end.UTC().Format(time.RFC3339)},
		"limit":      {"10000"},
		"adjustment": {"raw"},
		"feed":       {c.cfg.Feed},
	}

	var bars []models.PriceBar
	for {
		var page wireBarsResponse
		if err := c.do(ctx, httpclient.MethodGet, url, query, nil, &page); err != nil {
			return nil, fmt.Errorf("get bars %s: %w", symbol, err)
		}
		for i := range page.Bars {
			bars = append(bars, page.Bars[i].toModel())
		}
		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		query["page_token"] = []string{*page.NextPageToken}
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoData, symbol)
	}
	return bars, nil
}

func (c *Client) SubmitOrder(ctx context.Context, req *repository.OrderRequest) (*models.Order, error) {
	var order wireOrder
	err := c.do(ctx, httpclient.MethodPost, c.cfg.BaseURL+"/v2/orders", nil, orderRequestToWire(req), &order)
	if err != nil {
		return nil, fmt.Errorf("submit order %s %s: %w", req.Side, req.Symbol, err)
	}
	c.log.Info("order submitted",
		logger.String("symbol", req.Symbol),
		logger.String("side", req.Side),
		logger.Int64("qty", req.Qty),
		logger.String("order_id", order.ID))
	return order.toModel(), nil
}

func (c *Client) GetOrders(ctx context.Context, status string) ([]*models.Order, error) {
	if status == "" {
		status = "open"
	}
	var wire []wireOrder
	query := map[string][]string{"status": {status}, "limit": {"100"}}
	if err := c.do(ctx, httpclient.MethodGet, c.cfg.BaseURL+"/v2/orders", query, nil, &wire); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	orders := make([]*models.Order, 0, len(wire))
	for i := range wire {
		orders = append(orders, wire[i].toModel())
	}
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if err := c.do(ctx, httpclient.MethodDelete, c.cfg.BaseURL+"/v2/orders/"+orderID, nil, nil, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

func (c *Client) GetLatestQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	url := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", c.cfg.DataURL, symbol)
	var resp wireQuoteResponse
	if err := c.do(ctx, httpclient.MethodGet, url, map[string][]string{"feed": {c.cfg.Feed}}, nil, &resp); err != nil {
		return nil, fmt.Errorf("latest quote %s: %w", symbol, err)
	}
	if resp.Symbol == "" {
		resp.Symbol = symbol
	}
	return resp.toModel(), nil
}

func (c *Client) GetLatestTrade(ctx context.Context, symbol string) (*models.Trade, error) {
	url := fmt.Sprintf("%s/v2/stocks/%s/trades/latest", c.cfg.DataURL, symbol)
	var resp wireTradeResponse
	if err := c.do(ctx, httpclient.MethodGet, url, map[string][]string{"feed": {c.cfg.Feed}}, nil, &resp); err != nil {
		return nil, fmt.Errorf("latest trade %s: %w", symbol, err)
	}
	if resp.Symbol == "" {
		resp.Symbol = symbol
	}
	return resp.toModel(), nil
}
