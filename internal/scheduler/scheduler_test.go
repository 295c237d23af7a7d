package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/monitor"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/logger"
)

type fakeBroker struct {
	mu        sync.Mutex
	account   *models.Account
	positions []*models.Position
	bars      map[string][]models.PriceBar
	quotes    map[string]*models.Quote

	submitErr error
	submitted []*repository.OrderRequest
}

func (b *fakeBroker) GetAccount(context.Context) (*models.Account, error) {
	if b.account == nil {
		return nil, errors.New("account unavailable")
	}
	return b.account, nil
}

func (b *fakeBroker) GetPositions(context.Context) ([]*models.Position, error) {
	return b.positions, nil
}

func (b *fakeBroker) GetBars(_ context.Context, symbol string, _ repository.Timeframe, _, _ time.Time) ([]models.PriceBar, error) {
	bars, ok := b.bars[symbol]
	if !ok {
		return nil, repository.ErrNoData
	}
	return bars, nil
}

func (b *fakeBroker) SubmitOrder(_ context.Context, req *repository.OrderRequest) (*models.Order, error) {
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.mu.Lock()
	b.submitted = append(b.submitted, req)
	b.mu.Unlock()
	return &models.Order{ID: "order-1", Symbol: req.Symbol, Qty: req.Qty, Side: req.Side, Status: "accepted"}, nil
}

func (b *fakeBroker) GetOrders(context.Context, string) ([]*models.Order, error) { return nil, nil }
func (b *fakeBroker) CancelOrder(context.Context, string) error                  { return nil }

func (b *fakeBroker) GetLatestQuote(_ context.Context, symbol string) (*models.Quote, error) {
	q, ok := b.quotes[symbol]
	if !ok {
		return nil, repository.ErrNoData
	}
	return q, nil
}

func (b *fakeBroker) GetLatestTrade(context.Context, string) (*models.Trade, error) {
	return nil, repository.ErrNoData
}

func (b *fakeBroker) orders() []*repository.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*repository.OrderRequest(nil), b.submitted...)
}

func newScheduler(broker *fakeBroker) (*Scheduler, *monitor.Monitor) {
	log := logger.Nop()
	mon := monitor.New(broker, log)
	return New(Config{}, broker, mon, nil, nil, nil, nil, log), mon
}

// breakoutBars is a flat series whose final bar clears the prior rolling
// high on double the average volume.
func breakoutBars() []models.PriceBar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 21)
	for i := range bars {
		bars[i] = models.PriceBar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}
	bars[20].Close = 105
	bars[20].High = 105
	bars[20].Volume = 2000
	return bars
}

func momentumConfig(id string, enabled bool) *models.StrategyConfig {
	return &models.StrategyConfig{
		ID:              id,
		Name:            "breakout",
		Type:            strategy.TypeMomentumBreakout,
		Symbols:         []string{"AAPL"},
		IntervalSeconds: 60,
		Enabled:         enabled,
	}
}

func TestAddRejectsUnknownTypeAndDuplicates(t *testing.T) {
	s, _ := newScheduler(&fakeBroker{})

	err := s.Add(&models.StrategyConfig{ID: "x", Type: "martingale", Symbols: []string{"AAPL"}})
	require.ErrorIs(t, err, strategy.ErrUnknownType)

	require.NoError(t, s.Add(momentumConfig("s1", false)))
	require.ErrorIs(t, s.Add(momentumConfig("s1", false)), ErrStrategyExists)
}

func TestOperationsOnUnknownStrategy(t *testing.T) {
	s, _ := newScheduler(&fakeBroker{})
	require.ErrorIs(t, s.Enable("ghost"), ErrStrategyNotFound)
	require.ErrorIs(t, s.Disable("ghost"), ErrStrategyNotFound)
	require.ErrorIs(t, s.Remove("ghost"), ErrStrategyNotFound)
	require.ErrorIs(t, s.RunOnce(context.Background(), "ghost"), ErrStrategyNotFound)
	_, err := s.Get("ghost")
	require.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestSellWithEmptyLedgerIsNoop(t *testing.T) {
	broker := &fakeBroker{}
	s, _ := newScheduler(broker)

	sig := models.NewSignal("AAPL", models.ActionSell, 0, "exit", nil)
	require.False(t, s.executeSell(context.Background(), "s1", &sig))
	require.Empty(t, broker.orders())
	require.Empty(t, s.Ledger())
}

func TestSellResolvesFullPositionFromLedger(t *testing.T) {
	broker := &fakeBroker{positions: []*models.Position{{Symbol: "AAPL", Qty: 40}}}
	s, _ := newScheduler(broker)
	require.NoError(t, s.reconcileLedger(context.Background()))

	sig := models.NewSignal("AAPL", models.ActionSell, 0, "exit", nil)
	require.True(t, s.executeSell(context.Background(), "s1", &sig))

	orders := broker.orders()
	require.Len(t, orders, 1)
	require.Equal(t, "sell", orders[0].Side)
	require.Equal(t, int64(40), orders[0].Qty)
	require.Empty(t, s.Ledger()) // flat symbols leave the map
}

func TestPartialSellDecrementsLedgerAndMonitor(t *testing.T) {
	broker := &fakeBroker{positions: []*models.Position{{Symbol: "AAPL", Qty: 40}}}
	s, mon := newScheduler(broker)
	require.NoError(t, s.reconcileLedger(context.Background()))
	require.NoError(t, mon.Track("AAPL", 40, 100, 90, 0))

	sig := models.NewSignal("AAPL", models.ActionSell, 15, "trim", nil)
	require.True(t, s.executeSell(context.Background(), "s1", &sig))

	require.Equal(t, int64(25), s.Ledger()["AAPL"])
	require.Equal(t, int64(25), mon.Tracked()[0].Qty)
}

func TestSellCapsAtHeldQuantity(t *testing.T) {
	broker := &fakeBroker{positions: []*models.Position{{Symbol: "AAPL", Qty: 10}}}
	s, _ := newScheduler(broker)
	require.NoError(t, s.reconcileLedger(context.Background()))

	sig := models.NewSignal("AAPL", models.ActionSell, 99, "exit", nil)
	require.True(t, s.executeSell(context.Background(), "s1", &sig))

	orders := broker.orders()
	require.Len(t, orders, 1)
	require.Equal(t, int64(10), orders[0].Qty)
	require.Empty(t, s.Ledger())
}

func TestBuyUpdatesLedgerAndArmsMonitor(t *testing.T) {
	broker := &fakeBroker{}
	s, mon := newScheduler(broker)

	sig := models.NewSignal("AAPL", models.ActionBuy, 95, "breakout", map[string]float64{
		models.MetaEntryPrice: 105,
		models.MetaStopLoss:   99.75,
		models.MetaTakeProfit: 120.75,
	})
	require.True(t, s.executeBuy(context.Background(), "s1", &sig))

	require.Equal(t, int64(95), s.Ledger()["AAPL"])
	require.Equal(t, 1, mon.Len())
	tracked := mon.Tracked()[0]
	require.InDelta(t, 105.0, tracked.EntryPrice, 1e-9)
	require.InDelta(t, 99.75, tracked.StopLoss, 1e-9)
	require.InDelta(t, 120.75, tracked.TakeProfit, 1e-9)
}

func TestBuyWithoutExitLevelsSkipsMonitor(t *testing.T) {
	broker := &fakeBroker{}
	s, mon := newScheduler(broker)

	sig := models.NewSignal("AAPL", models.ActionBuy, 10, "entry", map[string]float64{
		models.MetaEntryPrice: 105,
	})
	require.True(t, s.executeBuy(context.Background(), "s1", &sig))
	require.Zero(t, mon.Len())
}

func TestRejectedBuyLeavesLedgerUnchanged(t *testing.T) {
	broker := &fakeBroker{submitErr: errors.New("insufficient buying power")}
	s, _ := newScheduler(broker)

	sig := models.NewSignal("AAPL", models.ActionBuy, 95, "breakout", nil)
	require.False(t, s.executeBuy(context.Background(), "s1", &sig))
	require.Empty(t, s.Ledger())
}

func TestRunOnceExecutesFullCycle(t *testing.T) {
	broker := &fakeBroker{
		account: &models.Account{Equity: 100000, Cash: 100000},
		bars:    map[string][]models.PriceBar{"AAPL": breakoutBars()},
	}
	s, mon := newScheduler(broker)
	require.NoError(t, s.Add(momentumConfig("s1", true)))

	require.NoError(t, s.RunOnce(context.Background(), "s1"))

	orders := broker.orders()
	require.Len(t, orders, 1)
	require.Equal(t, "buy", orders[0].Side)
	require.Equal(t, int64(95), orders[0].Qty) // 10% of 100k at 105/share
	require.Equal(t, int64(95), s.Ledger()["AAPL"])
	require.Equal(t, 1, mon.Len())

	cfg, err := s.Get("s1")
	require.NoError(t, err)
	require.Equal(t, int64(1), cfg.Executions)
	require.Equal(t, int64(1), cfg.SignalsGenerated)
	require.Equal(t, int64(1), cfg.OrdersPlaced)
	require.NotNil(t, cfg.LastExecution)
}

func TestRunOnceSurvivesAccountFailure(t *testing.T) {
	broker := &fakeBroker{bars: map[string][]models.PriceBar{"AAPL": breakoutBars()}}
	s, _ := newScheduler(broker)
	require.NoError(t, s.Add(momentumConfig("s1", true)))

	require.NoError(t, s.RunOnce(context.Background(), "s1"))
	require.Empty(t, broker.orders())

	cfg, err := s.Get("s1")
	require.NoError(t, err)
	require.Equal(t, int64(1), cfg.Executions) // cycle counted, loop survives
}

func TestStatusSortsStrategies(t *testing.T) {
	s, _ := newScheduler(&fakeBroker{})
	require.NoError(t, s.Add(momentumConfig("s2", false)))
	require.NoError(t, s.Add(momentumConfig("s1", true)))

	st := s.Status()
	require.False(t, st.Running)
	require.Len(t, st.Strategies, 2)
	require.Equal(t, "s1", st.Strategies[0].ID)
	require.Equal(t, "s2", st.Strategies[1].ID)
}

func TestStartStopLifecycle(t *testing.T) {
	broker := &fakeBroker{
		account: &models.Account{Equity: 100000},
		bars:    map[string][]models.PriceBar{"AAPL": breakoutBars()},
	}
	s, _ := newScheduler(broker)
	require.NoError(t, s.Add(momentumConfig("s1", true)))

	s.Start(context.Background())
	require.True(t, s.Running())

	// The enabled loop runs its first cycle immediately.
	require.Eventually(t, func() bool {
		return len(broker.orders()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	require.False(t, s.Running())

	// Stop is idempotent.
	s.Stop()
}

func TestDisableStopsLoop(t *testing.T) {
	broker := &fakeBroker{
		account: &models.Account{Equity: 100000},
		bars:    map[string][]models.PriceBar{"AAPL": breakoutBars()},
	}
	s, _ := newScheduler(broker)
	require.NoError(t, s.Add(momentumConfig("s1", true)))

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(broker.orders()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Disable("s1"))
	cfg, err := s.Get("s1")
	require.NoError(t, err)
	require.False(t, cfg.Enabled)

	s.Stop()
}
