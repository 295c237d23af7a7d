package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/repository"
	"TradeDesk/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL: srv.URL,
		DataURL: srv.URL,
		Key:     "test-key",
		Secret:  "test-secret",
		Timeout: 2 * time.Second,
	}, nil, logger.Nop())
	return c, srv
}

func TestGetAccountParsesStringNumbers(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/account", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("APCA-API-KEY-ID"))
		require.Equal(t, "test-secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Write([]byte(`{"account_number":"PA123","equity":"100000.50","cash":"25000","buying_power":"50000","status":"ACTIVE"}`))
	}))

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	require.Equal(t, "PA123", acct.AccountNumber)
	require.InDelta(t, 100000.50, acct.Equity, 1e-9)
	require.InDelta(t, 25000.0, acct.Cash, 1e-9)
}

func TestMissingCredentialsFailFast(t *testing.T) {
	called := false
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	c.cfg.Key = ""

	_, err := c.GetAccount(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.False(t, called)
}

func TestUnauthorizedStatusMapsToErrNotAuthenticated(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.GetAccount(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestGetPositions(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/positions", r.URL.Path)
		w.Write([]byte(`[{"symbol":"AAPL","qty":"40","avg_entry_price":"105.2","current_price":"110","market_value":"4400","unrealized_pl":"192"}]`))
	}))

	positions, err := c.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "AAPL", positions[0].Symbol)
	require.Equal(t, int64(40), positions[0].Qty)
	require.InDelta(t, 105.2, positions[0].AvgEntryPrice, 1e-9)
}

func TestGetBarsPaginates(t *testing.T) {
	page := 0
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/stocks/AAPL/bars", r.URL.Path)
		require.Equal(t, "1Day", r.URL.Query().Get("timeframe"))
		switch page {
		case 0:
			require.Empty(t, r.URL.Query().Get("page_token"))
			w.Write([]byte(`{"bars":[{"t":"2024-01-02T05:00:00Z","o":100,"h":101,"l":99,"c":100.5,"v":1000}],"next_page_token":"tok1"}`))
		default:
			require.Equal(t, "tok1", r.URL.Query().Get("page_token"))
			w.Write([]byte(`{"bars":[{"t":"2024-01-03T05:00:00Z","o":100.5,"h":102,"l":100,"c":101.5,"v":1200}],"next_page_token":null}`))
		}
		page++
	}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := c.GetBars(context.Background(), "AAPL", repository.TF1Day, start, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.InDelta(t, 100.5, bars[0].Close, 1e-9)
	require.InDelta(t, 101.5, bars[1].Close, 1e-9)
	require.Equal(t, 2, page)
}

func TestGetBarsEmptyIsErrNoData(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bars":[],"next_page_token":null}`))
	}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.GetBars(context.Background(), "AAPL", repository.TF1Day, start, start.AddDate(0, 0, 5))
	require.ErrorIs(t, err, repository.ErrNoData)
}

func TestSubmitOrderSendsWireFormat(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/orders", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "AAPL", body["symbol"])
		require.Equal(t, "95", body["qty"])
		require.Equal(t, "buy", body["side"])
		require.Equal(t, "market", body["type"])
		require.Equal(t, "day", body["time_in_force"])

		w.Write([]byte(`{"id":"ord-1","symbol":"AAPL","qty":"95","filled_qty":"0","side":"buy","type":"market","status":"accepted"}`))
	}))

	order, err := c.SubmitOrder(context.Background(), &repository.OrderRequest{
		Symbol: "AAPL",
		Qty:    95,
		Side:   "buy",
	})
	require.NoError(t, err)
	require.Equal(t, "ord-1", order.ID)
	require.Equal(t, int64(95), order.Qty)
	require.Equal(t, "accepted", order.Status)
}

func TestGetLatestQuote(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/stocks/AAPL/quotes/latest", r.URL.Path)
		w.Write([]byte(`{"symbol":"AAPL","quote":{"bp":104.9,"ap":105.1,"bs":3,"as":5,"t":"2024-01-02T15:00:00Z"}}`))
	}))

	quote, err := c.GetLatestQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
	require.InDelta(t, 104.9, quote.BidPrice, 1e-9)
	require.InDelta(t, 105.1, quote.AskPrice, 1e-9)
}

func TestGetLatestTrade(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/stocks/AAPL/trades/latest", r.URL.Path)
		w.Write([]byte(`{"symbol":"AAPL","trade":{"p":105.05,"s":100,"t":"2024-01-02T15:00:00Z"}}`))
	}))

	trade, err := c.GetLatestTrade(context.Background(), "AAPL")
	require.NoError(t, err)
	require.InDelta(t, 105.05, trade.Price, 1e-9)
}

func TestNotFoundMapsToErrNoData(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetLatestQuote(context.Background(), "ZZZZ")
	require.ErrorIs(t, err, repository.ErrNoData)
}

func TestCancelOrder(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v2/orders/ord-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.CancelOrder(context.Background(), "ord-1"))
}
