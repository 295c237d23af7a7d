// Package scheduler runs one periodic evaluation loop per enabled strategy
// plus a faster loop for the position monitor, and owns the open-positions
// ledger that mirrors broker-confirmed holdings.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
	"TradeDesk/internal/monitor"
	"TradeDesk/internal/strategy"
	"TradeDesk/pkg/cache"
	"TradeDesk/pkg/logger"
)

var (
	// ErrStrategyExists indicates an add with an ID already registered.
	ErrStrategyExists = errors.New("strategy already registered")

	// ErrStrategyNotFound indicates an operation on an unknown strategy ID.
	ErrStrategyNotFound = errors.New("strategy not registered")
)

// Config tunes the scheduler loops.
type Config struct {
	MonitorInterval time.Duration // tick for stop/take checks, e.g. 10s
	HistoryDays     int           // bar lookback fetched per symbol
	BarCacheTTL     time.Duration // daily-bar cache lifetime
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MonitorInterval <= 0 {
		out.MonitorInterval = 10 * time.Second
	}
	if out.HistoryDays <= 0 {
		out.HistoryDays = 100
	}
	if out.BarCacheTTL <= 0 {
		out.BarCacheTTL = 5 * time.Minute
	}
	return out
}

type runningStrategy struct {
	cfg    *models.StrategyConfig
	strat  strategy.Strategy
	cancel context.CancelFunc // nil while the loop is not running
}

// Scheduler coordinates strategy loops, the monitor loop, and order
// execution. The strategies map and the ledger each have their own lock;
// neither lock is ever held across a broker call.
type Scheduler struct {
	cfg     Config
	broker  repository.Broker
	mon     *monitor.Monitor
	orders  repository.OrderStore
	pub     repository.Publisher
	metrics repository.Metrics
	bars    cache.Service
	log     *logger.Logger

	mu         sync.Mutex
	strategies map[string]*runningStrategy
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	ledgerMu sync.Mutex
	ledger   map[string]int64
}

func New(cfg Config, broker repository.Broker, mon *monitor.Monitor, orders repository.OrderStore,
	pub repository.Publisher, metrics repository.Metrics, bars cache.Service, log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg.withDefaults(),
		broker:     broker,
		mon:        mon,
		orders:     orders,
		pub:        pub,
		metrics:    metrics,
		bars:       bars,
		log:        log,
		strategies: make(map[string]*runningStrategy),
		ledger:     make(map[string]int64),
	}
}

// Add registers a strategy config and builds its live instance. Enabled
// configs start looping immediately when the scheduler is running.
func (s *Scheduler) Add(cfg *models.StrategyConfig) error {
	strat, err := strategy.New(cfg.Type, cfg.Symbols, cfg.Parameters)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strategies[cfg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrStrategyExists, cfg.ID)
	}
	rs := &runningStrategy{cfg: cfg.Clone(), strat: strat}
	s.strategies[cfg.ID] = rs
	if s.running && rs.cfg.Enabled {
		s.startLoopLocked(rs)
	}

	s.log.Info("strategy registered",
		logger.String("id", cfg.ID),
		logger.String("type", cfg.Type),
		logger.Strings("symbols", cfg.Symbols),
		logger.Bool("enabled", cfg.Enabled))
	return nil
}

// Remove stops and forgets a strategy.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.strategies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	if rs.cancel != nil {
		rs.cancel()
		rs.cancel = nil
	}
	delete(s.strategies, id)
	return nil
}

// Enable marks a strategy enabled and starts its loop if the scheduler runs.
func (s *Scheduler) Enable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.strategies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	rs.cfg.Enabled = true
	if s.running && rs.cancel == nil {
		s.startLoopLocked(rs)
	}
	return nil
}

// Disable cancels a strategy's loop at its next suspension point.
func (s *Scheduler) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.strategies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	rs.cfg.Enabled = false
	if rs.cancel != nil {
		rs.cancel()
		rs.cancel = nil
	}
	return nil
}

// Start launches loops for every enabled strategy plus the monitor loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for _, rs := range s.strategies {
		if rs.cfg.Enabled {
			s.startLoopLocked(rs)
		}
	}

	s.wg.Add(1)
	go s.monitorLoop(s.ctx)
	s.log.Info("scheduler started", logger.Int("strategies", len(s.strategies)))
}

// Stop cancels every loop and waits for them to drain. In-flight broker
// calls complete before teardown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	for _, rs := range s.strategies {
		rs.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Running reports whether loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) startLoopLocked(rs *runningStrategy) {
	loopCtx, cancel := context.WithCancel(s.ctx)
	rs.cancel = cancel
	s.wg.Add(1)
	go s.strategyLoop(loopCtx, rs)
}

func (s *Scheduler) strategyLoop(ctx context.Context, rs *runningStrategy) {
	defer s.wg.Done()

	interval := time.Duration(rs.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.runCycle(ctx, rs)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) monitorLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sig := range s.mon.Check(ctx) {
				sig := sig
				s.executeSell(ctx, "monitor", &sig)
			}
			if s.metrics != nil {
				s.metrics.RecordMonitoredPositions(s.mon.Len())
			}
		}
	}
}

// runCycle is one full evaluation pass. Exit signals run first so a breached
// stop is flat before new entries are sized, then the ledger is reconciled
// and equity fetched fresh.
func (s *Scheduler) runCycle(ctx context.Context, rs *runningStrategy) {
	started := time.Now()
	id := rs.cfg.ID

	exits := s.mon.Check(ctx)
	for i := range exits {
		s.executeSell(ctx, id, &exits[i])
	}

	if err := s.reconcileLedger(ctx); err != nil {
		s.log.Warn("ledger reconciliation failed", logger.String("id", id), logger.Error(err))
		s.recordError("reconcile")
	}

	account, err := s.broker.GetAccount(ctx)
	if err != nil {
		s.log.Error("account fetch failed", logger.String("id", id), logger.Error(err))
		s.recordError("account")
		s.finishCycle(rs, started, 0, 0)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEquity(account.Equity)
	}

	history := s.fetchHistory(ctx, rs.strat.Symbols())
	if len(history) == 0 {
		s.log.Warn("no bar data this cycle", logger.String("id", id))
		s.finishCycle(rs, started, 0, 0)
		return
	}

	signals := rs.strat.Analyze(history, account.Equity)
	placed := 0
	for i := range signals {
		sig := &signals[i]
		if s.metrics != nil {
			s.metrics.RecordSignal(rs.cfg.Type, sig.Symbol, string(sig.Action))
		}
		var ok bool
		switch sig.Action {
		case models.ActionBuy:
			ok = s.executeBuy(ctx, id, sig)
		case models.ActionSell:
			ok = s.executeSell(ctx, id, sig)
		}
		if ok {
			placed++
		}
	}

	s.finishCycle(rs, started, len(signals), placed)
}

func (s *Scheduler) finishCycle(rs *runningStrategy, started time.Time, signals, placed int) {
	now := time.Now().UTC()

	s.mu.Lock()
	rs.cfg.Executions++
	rs.cfg.SignalsGenerated += int64(signals)
	rs.cfg.OrdersPlaced += int64(placed)
	rs.cfg.LastExecution = &now
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCycleDuration(rs.cfg.ID, time.Since(started).Seconds())
	}
}

// executeBuy submits a market buy, bumps the ledger, and arms the monitor
// when the signal carries exit levels. Returns true when an order went out.
func (s *Scheduler) executeBuy(ctx context.Context, strategyID string, sig *models.Signal) bool {
	if sig.Qty <= 0 {
		s.log.Warn("buy signal without quantity dropped",
			logger.String("id", strategyID), logger.String("symbol", sig.Symbol))
		return false
	}

	order, err := s.broker.SubmitOrder(ctx, &repository.OrderRequest{
		Symbol:      sig.Symbol,
		Qty:         sig.Qty,
		Side:        "buy",
		Type:        "market",
		TimeInForce: "day",
	})
	if err != nil {
		s.log.Error("buy order rejected",
			logger.String("id", strategyID),
			logger.String("symbol", sig.Symbol),
			logger.Int64("qty", sig.Qty),
			logger.Error(err))
		s.rejectOrder("buy")
		return false
	}

	s.ledgerMu.Lock()
	s.ledger[sig.Symbol] += sig.Qty
	s.ledgerMu.Unlock()

	entry, _ := sig.Meta(models.MetaEntryPrice)
	stop, _ := sig.Meta(models.MetaStopLoss)
	take, _ := sig.Meta(models.MetaTakeProfit)
	if entry > 0 && (stop > 0 || take > 0) {
		if err := s.mon.Track(sig.Symbol, sig.Qty, entry, stop, take); err != nil {
			s.log.Warn("could not track position", logger.String("symbol", sig.Symbol), logger.Error(err))
		}
	}

	s.recordOrder(ctx, strategyID, sig, order, "buy")
	s.log.Info("buy executed",
		logger.String("id", strategyID),
		logger.String("symbol", sig.Symbol),
		logger.Int64("qty", sig.Qty),
		logger.String("reason", sig.Reason))
	return true
}

// executeSell resolves qty 0 to the full ledger position and no-ops when
// flat. The ledger decrements after submission, floored at zero.
func (s *Scheduler) executeSell(ctx context.Context, strategyID string, sig *models.Signal) bool {
	s.ledgerMu.Lock()
	held := s.ledger[sig.Symbol]
	s.ledgerMu.Unlock()

	if held <= 0 {
		s.log.Debug("sell signal with no position held",
			logger.String("id", strategyID), logger.String("symbol", sig.Symbol))
		return false
	}
	qty := sig.Qty
	if qty <= 0 || qty > held {
		qty = held
	}

	order, err := s.broker.SubmitOrder(ctx, &repository.OrderRequest{
		Symbol:      sig.Symbol,
		Qty:         qty,
		Side:        "sell",
		Type:        "market",
		TimeInForce: "day",
	})
	if err != nil {
		s.log.Error("sell order rejected",
			logger.String("id", strategyID),
			logger.String("symbol", sig.Symbol),
			logger.Int64("qty", qty),
			logger.Error(err))
		s.rejectOrder("sell")
		return false
	}

	s.ledgerMu.Lock()
	remaining := s.ledger[sig.Symbol] - qty
	if remaining <= 0 {
		remaining = 0
		delete(s.ledger, sig.Symbol)
	} else {
		s.ledger[sig.Symbol] = remaining
	}
	s.ledgerMu.Unlock()

	s.mon.UpdateQuantity(sig.Symbol, remaining)

	s.recordOrder(ctx, strategyID, sig, order, "sell")
	s.log.Info("sell executed",
		logger.String("id", strategyID),
		logger.String("symbol", sig.Symbol),
		logger.Int64("qty", qty),
		logger.String("reason", sig.Reason))
	return true
}

func (s *Scheduler) recordOrder(ctx context.Context, strategyID string, sig *models.Signal, order *models.Order, side string) {
	if s.metrics != nil {
		s.metrics.RecordOrderSubmitted(side)
	}
	rec := &repository.OrderRecord{
		Timestamp:  time.Now().UTC(),
		StrategyID: strategyID,
		Symbol:     sig.Symbol,
		Side:       side,
		Qty:        sig.Qty,
		Reason:     sig.Reason,
	}
	if order != nil {
		rec.OrderID = order.ID
		rec.Qty = order.Qty
	}
	if s.orders != nil {
		if err := s.orders.Append(ctx, rec); err != nil {
			s.log.Warn("order history append failed", logger.Error(err))
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishOrder(ctx, rec); err != nil {
			s.log.Warn("order event publish failed", logger.Error(err))
		}
	}
}

func (s *Scheduler) rejectOrder(side string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(side)
	}
}

func (s *Scheduler) recordError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordError(kind)
	}
}

// reconcileLedger replaces the optimistic ledger with the broker's
// authoritative position list.
func (s *Scheduler) reconcileLedger(ctx context.Context) error {
	positions, err := s.broker.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("get positions: %w", err)
	}

	fresh := make(map[string]int64, len(positions))
	for _, p := range positions {
		if p.Qty > 0 {
			fresh[p.Symbol] = p.Qty
		}
	}

	s.ledgerMu.Lock()
	s.ledger = fresh
	s.ledgerMu.Unlock()
	return nil
}

// Ledger returns a copy of the held-quantity map.
func (s *Scheduler) Ledger() map[string]int64 {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	out := make(map[string]int64, len(s.ledger))
	for k, v := range s.ledger {
		out[k] = v
	}
	return out
}

// fetchHistory pulls daily bars for each symbol, consulting the bar cache
// first. A symbol that fails to fetch is skipped for this cycle.
func (s *Scheduler) fetchHistory(ctx context.Context, symbols []string) map[string][]models.PriceBar {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -s.cfg.HistoryDays)
	history := make(map[string][]models.PriceBar, len(symbols))

	for _, symbol := range symbols {
		key := fmt.Sprintf("bars:%s:%s:%d", symbol, end.Format("2006-01-02"), s.cfg.HistoryDays)
		if s.bars != nil {
			var cached []models.PriceBar
			if err := s.bars.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
				history[symbol] = cached
				continue
			}
		}

		bars, err := s.broker.GetBars(ctx, symbol, repository.TF1Day, start, end)
		if err != nil {
			s.log.Warn("bar fetch failed", logger.String("symbol", symbol), logger.Error(err))
			s.recordError("bars")
			continue
		}
		if len(bars) == 0 {
			continue
		}
		history[symbol] = bars

		if s.bars != nil {
			if err := s.bars.Set(ctx, key, bars, s.cfg.BarCacheTTL); err != nil {
				s.log.Debug("bar cache set failed", logger.String("symbol", symbol), logger.Error(err))
			}
		}
	}
	return history
}

// StrategyStatus is one strategy's scheduler-side state snapshot.
type StrategyStatus struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	Symbols          []string   `json:"symbols"`
	Enabled          bool       `json:"enabled"`
	IntervalSeconds  int        `json:"interval_seconds"`
	Executions       int64      `json:"executions"`
	SignalsGenerated int64      `json:"signals_generated"`
	OrdersPlaced     int64      `json:"orders_placed"`
	LastExecution    *time.Time `json:"last_execution,omitempty"`
}

// Status is the scheduler snapshot served over the API.
type Status struct {
	Running            bool                      `json:"running"`
	Strategies         []StrategyStatus          `json:"strategies"`
	MonitoredPositions []monitor.TrackedPosition `json:"monitored_positions"`
	Ledger             map[string]int64          `json:"ledger"`
}

// Status reports every registered strategy sorted by ID, the monitor
// registry, and the ledger.
func (s *Scheduler) Status() *Status {
	s.mu.Lock()
	statuses := make([]StrategyStatus, 0, len(s.strategies))
	for _, rs := range s.strategies {
		statuses = append(statuses, StrategyStatus{
			ID:               rs.cfg.ID,
			Name:             rs.cfg.Name,
			Type:             rs.cfg.Type,
			Symbols:          append([]string(nil), rs.cfg.Symbols...),
			Enabled:          rs.cfg.Enabled,
			IntervalSeconds:  rs.cfg.IntervalSeconds,
			Executions:       rs.cfg.Executions,
			SignalsGenerated: rs.cfg.SignalsGenerated,
			OrdersPlaced:     rs.cfg.OrdersPlaced,
			LastExecution:    rs.cfg.LastExecution,
		})
	}
	running := s.running
	s.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return &Status{
		Running:            running,
		Strategies:         statuses,
		MonitoredPositions: s.mon.Tracked(),
		Ledger:             s.Ledger(),
	}
}

// List returns copies of every registered config sorted by ID.
func (s *Scheduler) List() []*models.StrategyConfig {
	s.mu.Lock()
	configs := make([]*models.StrategyConfig, 0, len(s.strategies))
	for _, rs := range s.strategies {
		configs = append(configs, rs.cfg.Clone())
	}
	s.mu.Unlock()
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs
}

// Get returns a copy of one registered config.
func (s *Scheduler) Get(id string) (*models.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	return rs.cfg.Clone(), nil
}

// RunOnce executes a single evaluation cycle for one strategy, regardless of
// its loop state. Used by tests and the manual trigger endpoint.
func (s *Scheduler) RunOnce(ctx context.Context, id string) error {
	s.mu.Lock()
	rs, ok := s.strategies[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
	}
	s.runCycle(ctx, rs)
	return nil
}
